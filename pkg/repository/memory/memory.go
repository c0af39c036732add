package memory

import (
	"github.com/agrilens/agrilens/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps everything in process memory. It is used by tests and by the
// CLI when no durable backend is configured.
type Memory struct {
	finding *findingRepository
	record  *recordRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		finding: newFindingRepository(),
		record:  newRecordRepository(),
	}
}

func (m *Memory) Finding() interfaces.FindingRepository {
	return m.finding
}

func (m *Memory) Record() interfaces.RecordRepository {
	return m.record
}

func (m *Memory) Close() error {
	return nil
}
