package cli

import (
	"context"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/domain/types"
	"github.com/agrilens/agrilens/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type researchOutput struct {
	Topic           model.Topic           `json:"topic"`
	State           usecase.ResearchState `json:"state"`
	Findings        []*model.Finding      `json:"findings"`
	ResearchSources []string              `json:"research_sources"`
}

func cmdResearch() *cli.Command {
	var crop, location string
	var p pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "crop",
			Usage:       "Crop to research",
			Required:    true,
			Destination: &crop,
		},
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Location to research",
			Required:    true,
			Destination: &location,
		},
	}
	flags = append(flags, p.Flags()...)

	return &cli.Command{
		Name:  "research",
		Usage: "Return research findings for a crop and location, fetching sources when the cache is stale",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := p.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := uc.Research.Research(ctx, crop, location)
			if err != nil {
				return goerr.Wrap(err, "research failed")
			}

			return printJSON(c.Root().Writer, researchOutput{
				Topic:           result.Topic,
				State:           result.State,
				Findings:        result.Findings,
				ResearchSources: result.Sources(),
			})
		},
	}
}

func cmdMetrics() *cli.Command {
	var recordType, crop, product, location string
	var windowDays int
	var fields []string
	var p pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Record type [farming|market|weather]",
			Required:    true,
			Destination: &recordType,
		},
		&cli.StringFlag{
			Name:        "crop",
			Usage:       "Crop type filter for farming records",
			Destination: &crop,
		},
		&cli.StringFlag{
			Name:        "product",
			Usage:       "Product filter for market records",
			Destination: &product,
		},
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Location filter for weather records",
			Destination: &location,
		},
		&cli.IntFlag{
			Name:        "window",
			Usage:       "Window length in days",
			Value:       30,
			Destination: &windowDays,
		},
		&cli.StringSliceFlag{
			Name:        "field",
			Usage:       "Field to aggregate; all numeric fields when omitted",
			Destination: &fields,
		},
	}
	flags = append(flags, p.Flags()...)

	return &cli.Command{
		Name:  "metrics",
		Usage: "Aggregate structured records over a trailing window",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := types.ParseRecordType(recordType)
			if err != nil {
				return goerr.Wrap(err, "invalid record type")
			}

			uc, cleanup, err := p.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := model.Filter{CropType: crop, Product: product, Location: location}
			summary, err := uc.MetricsWindow.Aggregate(ctx, rt, filter, windowDays, fields...)
			if err != nil {
				return goerr.Wrap(err, "aggregation failed")
			}

			return printJSON(c.Root().Writer, summary)
		},
	}
}

func cmdAdvise() *cli.Command {
	var req model.AdvisoryRequest
	var p pipeline

	flags := []cli.Flag{
		&cli.StringFlag{Name: "location", Usage: "Farm location", Required: true, Destination: &req.Location},
		&cli.StringFlag{Name: "crop", Usage: "Crop", Required: true, Destination: &req.Crop},
		&cli.StringFlag{Name: "soil-type", Usage: "Soil type", Required: true, Destination: &req.SoilType},
		&cli.StringFlag{Name: "season", Usage: "Growing season", Destination: &req.Season},
		&cli.StringFlag{Name: "water-availability", Usage: "Water availability", Destination: &req.WaterAvailability},
		&cli.StringFlag{Name: "previous-crop", Usage: "Previous crop on the field", Destination: &req.PreviousCrop},
		&cli.StringFlag{Name: "pest-issues", Usage: "Known pest issues", Destination: &req.PestIssues},
	}
	flags = append(flags, p.Flags()...)

	return &cli.Command{
		Name:  "advise",
		Usage: "Assemble farming advice from research findings and recent metrics",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := p.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := uc.Advise.Advise(ctx, req)
			if err != nil {
				return goerr.Wrap(err, "advise failed")
			}

			return printJSON(c.Root().Writer, resp)
		},
	}
}

func cmdSustainability() *cli.Command {
	var crop, soil string
	var p pipeline

	flags := []cli.Flag{
		&cli.StringFlag{Name: "crop", Usage: "Crop", Required: true, Destination: &crop},
		&cli.StringFlag{Name: "soil", Usage: "Soil type", Required: true, Destination: &soil},
	}
	flags = append(flags, p.Flags()...)

	return &cli.Command{
		Name:  "sustainability",
		Usage: "Evaluate the environmental impact of growing a crop on a soil type",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := p.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := uc.Advise.EvaluateSustainability(ctx, crop, soil)
			if err != nil {
				return goerr.Wrap(err, "sustainability evaluation failed")
			}

			return printJSON(c.Root().Writer, report)
		},
	}
}
