package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanwang67/catalog_client/protocol"
)

const testSession = uint64(42)

// newTestServer returns a server with one registered session, exercised
// through direct handler calls.
func newTestServer(t *testing.T, ttl time.Duration) *Server {
	t.Helper()
	s := New(1, &protocol.Connection{Network: "tcp", Address: "127.0.0.1:0"}, ttl)

	reply := &protocol.HeartbeatReply{}
	require.NoError(t, s.Heartbeat(&protocol.HeartbeatRequest{Create: true, SessionId: testSession}, reply))
	require.True(t, reply.Status.OK())
	return s
}

func createTestDatabase(t *testing.T, s *Server, oid, nextOid uint32) {
	t.Helper()
	reply := &protocol.CreateDatabaseReply{}
	require.NoError(t, s.CreateDatabase(&protocol.CreateDatabaseRequest{
		SessionId:    testSession,
		DatabaseName: "db",
		DatabaseOid:  oid,
		NextOid:      nextOid,
	}, reply))
	require.True(t, reply.Status.OK(), "create database: %s", reply.Status.Err())
}

func TestHeartbeatCreateAndRefresh(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.HeartbeatReply{}
	require.NoError(t, s.Heartbeat(&protocol.HeartbeatRequest{SessionId: testSession}, reply))
	assert.True(t, reply.Status.OK())
}

func TestHeartbeatDuplicateCreateRejected(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.HeartbeatReply{}
	require.NoError(t, s.Heartbeat(&protocol.HeartbeatRequest{Create: true, SessionId: testSession}, reply))
	assert.Equal(t, protocol.StatusAlreadyExists, reply.Status.Code)
}

func TestHeartbeatUnknownSessionRejected(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.HeartbeatReply{}
	require.NoError(t, s.Heartbeat(&protocol.HeartbeatRequest{SessionId: 999}, reply))
	assert.Equal(t, protocol.StatusInvalidSession, reply.Status.Code)
}

func TestSessionExpiry(t *testing.T) {
	s := newTestServer(t, 30*time.Millisecond)

	time.Sleep(60 * time.Millisecond)

	reply := &protocol.HeartbeatReply{}
	require.NoError(t, s.Heartbeat(&protocol.HeartbeatRequest{SessionId: testSession}, reply))
	assert.Equal(t, protocol.StatusInvalidSession, reply.Status.Code)
}

func TestAdminCallWithoutSessionRejected(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.IsInitDbDoneReply{}
	require.NoError(t, s.IsInitDbDone(&protocol.IsInitDbDoneRequest{SessionId: 999}, reply))
	assert.Equal(t, protocol.StatusInvalidSession, reply.Status.Code)
}

func TestCreateDatabase(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 0)

	infoReply := &protocol.GetDatabaseInfoReply{}
	require.NoError(t, s.GetDatabaseInfo(&protocol.GetDatabaseInfoRequest{SessionId: testSession, Oid: 5}, infoReply))
	require.True(t, infoReply.Status.OK())
	assert.Equal(t, "db", infoReply.Info.Name)
	assert.Equal(t, uint32(5), infoReply.Info.Oid)

	dupReply := &protocol.CreateDatabaseReply{}
	require.NoError(t, s.CreateDatabase(&protocol.CreateDatabaseRequest{
		SessionId:    testSession,
		DatabaseName: "db2",
		DatabaseOid:  5,
	}, dupReply))
	assert.Equal(t, protocol.StatusAlreadyExists, dupReply.Status.Code)
}

func TestGetDatabaseInfoNotFound(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.GetDatabaseInfoReply{}
	require.NoError(t, s.GetDatabaseInfo(&protocol.GetDatabaseInfoRequest{SessionId: testSession, Oid: 77}, reply))
	assert.Equal(t, protocol.StatusNotFound, reply.Status.Code)
}

func TestCreateAndOpenTable(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 0)

	tableId := protocol.TableId{DatabaseOid: 5, ObjectOid: 16400}
	createReply := &protocol.CreateTableReply{}
	require.NoError(t, s.CreateTable(&protocol.CreateTableRequest{
		SessionId: testSession,
		TableId:   tableId,
		TableName: "orders",
		Columns: []protocol.ColumnSchema{
			{Name: "id", Type: "int64", HashKey: true},
			{Name: "amount", Type: "int64", Nullable: true},
		},
	}, createReply))
	require.True(t, createReply.Status.OK(), "create table: %s", createReply.Status.Err())

	openReply := &protocol.OpenTableReply{}
	require.NoError(t, s.OpenTable(&protocol.OpenTableRequest{SessionId: testSession, TableId: tableId}, openReply))
	require.True(t, openReply.Status.OK())
	assert.Equal(t, "orders", openReply.Info.TableName)
	assert.Equal(t, uint32(1), openReply.Info.Version)
	// Orders are assigned sequentially when the request leaves them zero.
	assert.Equal(t, int32(1), openReply.Info.Columns[0].Order)
	assert.Equal(t, int32(2), openReply.Info.Columns[1].Order)
	assert.Len(t, openReply.Partitions.Keys, 1)
}

func TestOpenTableNotFound(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.OpenTableReply{}
	require.NoError(t, s.OpenTable(&protocol.OpenTableRequest{
		SessionId: testSession,
		TableId:   protocol.TableId{DatabaseOid: 5, ObjectOid: 1},
	}, reply))
	assert.Equal(t, protocol.StatusNotFound, reply.Status.Code)
}

func TestAlterTable(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 0)

	tableId := protocol.TableId{DatabaseOid: 5, ObjectOid: 16400}
	createReply := &protocol.CreateTableReply{}
	require.NoError(t, s.CreateTable(&protocol.CreateTableRequest{
		SessionId: testSession,
		TableId:   tableId,
		TableName: "orders",
		Columns: []protocol.ColumnSchema{
			{Name: "id", Type: "int64", HashKey: true},
			{Name: "scratch", Type: "string", Nullable: true},
		},
	}, createReply))
	require.True(t, createReply.Status.OK())

	alterReply := &protocol.AlterTableReply{}
	require.NoError(t, s.AlterTable(&protocol.AlterTableRequest{
		SessionId:   testSession,
		TableId:     tableId,
		RenameTo:    "orders_v2",
		AddColumns:  []protocol.ColumnSchema{{Name: "amount", Type: "int64", Nullable: true}},
		DropColumns: []string{"scratch"},
	}, alterReply))
	require.True(t, alterReply.Status.OK(), "alter table: %s", alterReply.Status.Err())

	openReply := &protocol.OpenTableReply{}
	require.NoError(t, s.OpenTable(&protocol.OpenTableRequest{SessionId: testSession, TableId: tableId}, openReply))
	require.True(t, openReply.Status.OK())
	assert.Equal(t, "orders_v2", openReply.Info.TableName)
	assert.Equal(t, uint32(2), openReply.Info.Version)
	require.Len(t, openReply.Info.Columns, 2)
	assert.Equal(t, "id", openReply.Info.Columns[0].Name)
	assert.Equal(t, "amount", openReply.Info.Columns[1].Name)
}

func TestAlterTableCannotDropKeyColumn(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 0)

	tableId := protocol.TableId{DatabaseOid: 5, ObjectOid: 16400}
	createReply := &protocol.CreateTableReply{}
	require.NoError(t, s.CreateTable(&protocol.CreateTableRequest{
		SessionId: testSession,
		TableId:   tableId,
		TableName: "orders",
		Columns:   []protocol.ColumnSchema{{Name: "id", Type: "int64", HashKey: true}},
	}, createReply))
	require.True(t, createReply.Status.OK())

	alterReply := &protocol.AlterTableReply{}
	require.NoError(t, s.AlterTable(&protocol.AlterTableRequest{
		SessionId:   testSession,
		TableId:     tableId,
		DropColumns: []string{"id"},
	}, alterReply))
	assert.Equal(t, protocol.StatusInvalidArgument, alterReply.Status.Code)
}

func TestReserveOids(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 100)

	reply := &protocol.ReserveOidsReply{}
	require.NoError(t, s.ReserveOids(&protocol.ReserveOidsRequest{
		SessionId:   testSession,
		DatabaseOid: 5,
		NextOid:     100,
		Count:       10,
	}, reply))
	require.True(t, reply.Status.OK())
	assert.Equal(t, uint32(100), reply.BeginOid)
	assert.Equal(t, uint32(110), reply.EndOid)

	// A later reservation never reissues the same range, even with a
	// stale hint.
	reply = &protocol.ReserveOidsReply{}
	require.NoError(t, s.ReserveOids(&protocol.ReserveOidsRequest{
		SessionId:   testSession,
		DatabaseOid: 5,
		NextOid:     100,
		Count:       5,
	}, reply))
	require.True(t, reply.Status.OK())
	assert.Equal(t, uint32(110), reply.BeginOid)
	assert.Equal(t, uint32(115), reply.EndOid)
}

func TestReserveOidsHonorsHigherHint(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 100)

	reply := &protocol.ReserveOidsReply{}
	require.NoError(t, s.ReserveOids(&protocol.ReserveOidsRequest{
		SessionId:   testSession,
		DatabaseOid: 5,
		NextOid:     500,
		Count:       10,
	}, reply))
	require.True(t, reply.Status.OK())
	assert.Equal(t, uint32(500), reply.BeginOid)
	assert.Equal(t, uint32(510), reply.EndOid)
}

func TestReserveOidsZeroCountRejected(t *testing.T) {
	s := newTestServer(t, time.Minute)
	createTestDatabase(t, s, 5, 0)

	reply := &protocol.ReserveOidsReply{}
	require.NoError(t, s.ReserveOids(&protocol.ReserveOidsRequest{
		SessionId:   testSession,
		DatabaseOid: 5,
	}, reply))
	assert.Equal(t, protocol.StatusInvalidArgument, reply.Status.Code)
}

func TestIsInitDbDone(t *testing.T) {
	s := newTestServer(t, time.Minute)

	reply := &protocol.IsInitDbDoneReply{}
	require.NoError(t, s.IsInitDbDone(&protocol.IsInitDbDoneRequest{SessionId: testSession}, reply))
	require.True(t, reply.Status.OK())
	assert.False(t, reply.Done)

	s.MarkInitDbDone()
	reply = &protocol.IsInitDbDoneReply{}
	require.NoError(t, s.IsInitDbDone(&protocol.IsInitDbDoneRequest{SessionId: testSession}, reply))
	require.True(t, reply.Status.OK())
	assert.True(t, reply.Done)
}
