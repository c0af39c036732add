package rdb

import (
	"context"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

type findingRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

type findingRow struct {
	ID            string `db:"id"`
	Topic         string `db:"topic"`
	Source        string `db:"source"`
	Title         string `db:"title"`
	Content       string `db:"content"`
	DateCollected dbTime `db:"date_collected"`
}

func (r *findingRow) toModel() *model.Finding {
	return &model.Finding{
		ID:          model.FindingID(r.ID),
		Topic:       model.Topic(r.Topic),
		Source:      r.Source,
		Title:       r.Title,
		Content:     r.Content,
		CollectedAt: r.DateCollected.Time,
	}
}

const insertFindingSQL = `
INSERT INTO research_findings (id, topic, source, title, content, date_collected)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`

const lookupFindingSQL = `
SELECT id, topic, source, title, content, date_collected
FROM research_findings
WHERE topic = ? AND date_collected > ?
ORDER BY date_collected, id`

func (r *findingRepository) Insert(ctx context.Context, finding *model.Finding) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(insertFindingSQL),
		string(finding.ID),
		string(finding.Topic),
		finding.Source,
		finding.Title,
		finding.Content,
		r.dialect.TimeArg(finding.CollectedAt),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert finding",
			goerr.V(model.TopicKey, finding.Topic),
			goerr.V(model.SourceKey, finding.Source),
			goerr.V("dialect", r.dialect.Name))
	}
	return nil
}

func (r *findingRepository) Lookup(ctx context.Context, topic model.Topic, since time.Time) ([]*model.Finding, error) {
	var rows []findingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(lookupFindingSQL),
		string(topic), r.dialect.TimeArg(since)); err != nil {
		return nil, goerr.Wrap(err, "failed to lookup findings",
			goerr.V(model.TopicKey, topic),
			goerr.V("since", since),
			goerr.V("dialect", r.dialect.Name))
	}

	findings := make([]*model.Finding, 0, len(rows))
	for i := range rows {
		findings = append(findings, rows[i].toModel())
	}
	return findings, nil
}
