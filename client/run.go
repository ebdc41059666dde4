package client

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"

	"github.com/alanwang67/catalog_client/protocol"
	"github.com/alanwang67/catalog_client/workload"
)

// Run executes a workload of administrative operations against the session.
// It creates a scratch database up front, then drives the instruction
// stream, reserving table oids as needed. Intended for soak runs from the
// command line and tests.
func (c *Client) Run(instructions []workload.Instruction) error {
	databaseOid := uint32(10000 + rand.Intn(10000))
	req := &protocol.CreateDatabaseRequest{
		DatabaseName: fmt.Sprintf("workload_%d", databaseOid),
		DatabaseOid:  databaseOid,
	}
	if err := c.CreateDatabase(req, time.Time{}); err != nil {
		return fmt.Errorf("creating workload database: %w", err)
	}

	var tables []protocol.TableId
	for _, instr := range instructions {
		start := time.Now()
		var err error

		switch instr.Type {
		case workload.InstructionTypeCreateTable:
			var begin uint32
			begin, _, err = c.ReserveOids(databaseOid, 0, 1)
			if err != nil {
				break
			}
			tableId := protocol.TableId{DatabaseOid: databaseOid, ObjectOid: begin}
			err = c.CreateTable(&protocol.CreateTableRequest{
				TableId:   tableId,
				TableName: fmt.Sprintf("t_%d", begin),
				Columns: []protocol.ColumnSchema{
					{Name: "k", Type: "int64", Order: 1, HashKey: true},
					{Name: "v", Type: "string", Order: 2, Nullable: true},
				},
			}, time.Time{})
			if err == nil {
				tables = append(tables, tableId)
			}
		case workload.InstructionTypeOpenTable:
			if len(tables) == 0 {
				continue
			}
			_, err = c.OpenTable(tables[rand.Intn(len(tables))])
		case workload.InstructionTypeReserveOids:
			_, _, err = c.ReserveOids(databaseOid, 0, 10)
		case workload.InstructionTypeDatabaseInfo:
			_, err = c.GetDatabaseInfo(databaseOid)
		default:
			log.Warnf("unknown instruction type: %s", instr.Type)
			continue
		}

		if err != nil {
			return fmt.Errorf("%s: %w", instr.Type, err)
		}
		log.Debugf("session %d: %s took %s", c.sessionId, instr.Type, time.Since(start))

		if instr.Delay > 0 {
			time.Sleep(instr.Delay)
		}
	}
	return nil
}
