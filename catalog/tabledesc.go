// Package catalog holds the client-side table metadata built from OpenTable
// replies.
package catalog

import (
	"fmt"

	"github.com/alanwang67/catalog_client/protocol"
)

// TableDescriptor is the reconstructed description of one table: its schema
// with column lookup indexes plus the versioned partition list. Immutable
// once built.
type TableDescriptor struct {
	id            protocol.TableId
	name          string
	schemaVersion uint32
	columns       []protocol.ColumnSchema
	byName        map[string]int
	byOrder       map[int32]int
	partitions    protocol.TablePartitions
}

// NewTableDescriptor builds a descriptor from the schema and partition
// payloads of an OpenTable reply.
func NewTableDescriptor(info protocol.TableSchemaInfo, partitions protocol.TablePartitions) (*TableDescriptor, error) {
	d := &TableDescriptor{
		id:            info.TableId,
		name:          info.TableName,
		schemaVersion: info.Version,
		columns:       append([]protocol.ColumnSchema(nil), info.Columns...),
		byName:        make(map[string]int, len(info.Columns)),
		byOrder:       make(map[int32]int, len(info.Columns)),
		partitions: protocol.TablePartitions{
			Version: partitions.Version,
			Keys:    append([][]byte(nil), partitions.Keys...),
		},
	}
	for i, col := range d.columns {
		if _, ok := d.byName[col.Name]; ok {
			return nil, fmt.Errorf("table %s: duplicate column %q", info.TableId, col.Name)
		}
		if _, ok := d.byOrder[col.Order]; ok {
			return nil, fmt.Errorf("table %s: duplicate column order %d", info.TableId, col.Order)
		}
		d.byName[col.Name] = i
		d.byOrder[col.Order] = i
	}
	return d, nil
}

func (d *TableDescriptor) Id() protocol.TableId  { return d.id }
func (d *TableDescriptor) Name() string          { return d.name }
func (d *TableDescriptor) SchemaVersion() uint32 { return d.schemaVersion }

// Columns returns the table's columns in schema order.
func (d *TableDescriptor) Columns() []protocol.ColumnSchema { return d.columns }

// Column looks a column up by name.
func (d *TableDescriptor) Column(name string) (protocol.ColumnSchema, bool) {
	i, ok := d.byName[name]
	if !ok {
		return protocol.ColumnSchema{}, false
	}
	return d.columns[i], true
}

// ColumnByOrder looks a column up by attribute number.
func (d *TableDescriptor) ColumnByOrder(order int32) (protocol.ColumnSchema, bool) {
	i, ok := d.byOrder[order]
	if !ok {
		return protocol.ColumnSchema{}, false
	}
	return d.columns[i], true
}

// KeyColumns returns the hash and range key columns, in schema order.
func (d *TableDescriptor) KeyColumns() []protocol.ColumnSchema {
	var keys []protocol.ColumnSchema
	for _, col := range d.columns {
		if col.HashKey || col.RangeKey {
			keys = append(keys, col)
		}
	}
	return keys
}

// PartitionCount returns the number of tablets backing the table.
func (d *TableDescriptor) PartitionCount() int { return len(d.partitions.Keys) }

// PartitionVersion returns the version of the partition list.
func (d *TableDescriptor) PartitionVersion() uint64 { return d.partitions.Version }

// PartitionKeys returns the lower-bound partition key of each tablet in
// order.
func (d *TableDescriptor) PartitionKeys() [][]byte { return d.partitions.Keys }
