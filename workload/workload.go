// Package workload generates randomized administrative operation streams
// for soaking a catalog client against a live server.
package workload

import (
	"time"

	"golang.org/x/exp/rand"
)

// InstructionType constants define the kinds of administrative operations.
const (
	InstructionTypeCreateTable  = "create_table"
	InstructionTypeOpenTable    = "open_table"
	InstructionTypeReserveOids  = "reserve_oids"
	InstructionTypeDatabaseInfo = "database_info"
)

// Instruction represents a single administrative operation in the workload.
type Instruction struct {
	Type  string
	Delay time.Duration // Optional delay before executing the instruction
}

// Generator generates workloads based on specified operation ratios. The
// ratios should sum to at most 1; the remainder becomes database info
// lookups.
type Generator struct {
	CreateTableRatio float64
	OpenTableRatio   float64
	ReserveOidsRatio float64
	OperationCount   int
	InstructionDelay time.Duration
}

// NewGenerator creates a Generator with default parameters.
func NewGenerator() *Generator {
	return &Generator{
		CreateTableRatio: 0.2,
		OpenTableRatio:   0.5,
		ReserveOidsRatio: 0.2,
		OperationCount:   100,
		InstructionDelay: 0,
	}
}

// Generate creates a workload based on the generator's parameters.
func (g *Generator) Generate() []Instruction {
	rng := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))

	instructions := make([]Instruction, 0, g.OperationCount)
	for i := 0; i < g.OperationCount; i++ {
		var instrType string
		switch v := rng.Float64(); {
		case v < g.CreateTableRatio:
			instrType = InstructionTypeCreateTable
		case v < g.CreateTableRatio+g.OpenTableRatio:
			instrType = InstructionTypeOpenTable
		case v < g.CreateTableRatio+g.OpenTableRatio+g.ReserveOidsRatio:
			instrType = InstructionTypeReserveOids
		default:
			instrType = InstructionTypeDatabaseInfo
		}
		instructions = append(instructions, Instruction{
			Type:  instrType,
			Delay: g.InstructionDelay,
		})
	}
	return instructions
}
