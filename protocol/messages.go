package protocol

import "fmt"

// RPC method names registered by the server and dialed by the client.
const (
	MethodHeartbeat       = "Catalog.Heartbeat"
	MethodCreateDatabase  = "Catalog.CreateDatabase"
	MethodCreateTable     = "Catalog.CreateTable"
	MethodAlterTable      = "Catalog.AlterTable"
	MethodOpenTable       = "Catalog.OpenTable"
	MethodGetDatabaseInfo = "Catalog.GetDatabaseInfo"
	MethodReserveOids     = "Catalog.ReserveOids"
	MethodIsInitDbDone    = "Catalog.IsInitDbDone"
)

// TableId identifies a table as a (database oid, object oid) pair.
type TableId struct {
	DatabaseOid uint32
	ObjectOid   uint32
}

func (t TableId) String() string {
	return fmt.Sprintf("%d.%d", t.DatabaseOid, t.ObjectOid)
}

// ColumnSchema describes one column of a table.
type ColumnSchema struct {
	Name     string
	Type     string
	Order    int32 // attribute number, unique within the table
	Nullable bool
	HashKey  bool
	RangeKey bool
}

// TableSchemaInfo is the schema payload carried by an OpenTable reply.
type TableSchemaInfo struct {
	TableId   TableId
	TableName string
	Columns   []ColumnSchema
	Version   uint32
}

// TablePartitions is the versioned partition list carried by an OpenTable
// reply. Keys holds the lower-bound partition key of each tablet in order;
// the first entry is always the empty key.
type TablePartitions struct {
	Version uint64
	Keys    [][]byte
}

// NamespaceInfo describes one database.
type NamespaceInfo struct {
	Oid       uint32
	Name      string
	Colocated bool
}

type HeartbeatRequest struct {
	// Create is set only on the bootstrap heartbeat, asking the server to
	// register the session.
	Create    bool
	SessionId uint64
}

type HeartbeatReply struct {
	ReplyHeader
}

type CreateDatabaseRequest struct {
	SessionId         uint64
	DatabaseName      string
	DatabaseOid       uint32
	SourceDatabaseOid uint32
	NextOid           uint32
	Colocated         bool
}

type CreateDatabaseReply struct {
	ReplyHeader
}

type CreateTableRequest struct {
	SessionId uint64
	TableId   TableId
	TableName string
	Columns   []ColumnSchema
}

type CreateTableReply struct {
	ReplyHeader
}

type AlterTableRequest struct {
	SessionId   uint64
	TableId     TableId
	RenameTo    string
	AddColumns  []ColumnSchema
	DropColumns []string
}

type AlterTableReply struct {
	ReplyHeader
}

type OpenTableRequest struct {
	SessionId uint64
	TableId   TableId
}

type OpenTableReply struct {
	ReplyHeader
	Info       TableSchemaInfo
	Partitions TablePartitions
}

type GetDatabaseInfoRequest struct {
	SessionId uint64
	Oid       uint32
}

type GetDatabaseInfoReply struct {
	ReplyHeader
	Info NamespaceInfo
}

type ReserveOidsRequest struct {
	SessionId   uint64
	DatabaseOid uint32
	NextOid     uint32
	Count       uint32
}

type ReserveOidsReply struct {
	ReplyHeader
	// Allocated range is [BeginOid, EndOid).
	BeginOid uint32
	EndOid   uint32
}

type IsInitDbDoneRequest struct {
	SessionId uint64
}

type IsInitDbDoneReply struct {
	ReplyHeader
	Done bool
}
