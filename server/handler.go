package server

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/alanwang67/catalog_client/protocol"
)

// firstNormalOid is the lowest object id handed to user objects when a
// database is created without a starting hint.
const firstNormalOid = 16384

// pruneSessionsLocked drops sessions whose last heartbeat is older than the
// TTL. Caller holds s.mu.
func (s *Server) pruneSessionsLocked(now time.Time) {
	for id, last := range s.sessions {
		if now.Sub(last) > s.sessionTTL {
			log.Warnf("catalog server %d: session %d expired", s.Id, id)
			delete(s.sessions, id)
		}
	}
}

// checkSessionLocked rejects calls stamped with an unknown or expired
// session. Caller holds s.mu.
func (s *Server) checkSessionLocked(sessionId uint64) protocol.Status {
	s.pruneSessionsLocked(time.Now())
	if _, ok := s.sessions[sessionId]; !ok {
		return protocol.Errf(protocol.StatusInvalidSession, "unknown session %d", sessionId)
	}
	return protocol.Status{}
}

// Heartbeat registers the session on a create call and refreshes its
// liveness on every later one.
func (s *Server) Heartbeat(req *protocol.HeartbeatRequest, reply *protocol.HeartbeatReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.pruneSessionsLocked(now)

	if req.Create {
		if _, ok := s.sessions[req.SessionId]; ok {
			reply.Status = protocol.Errf(protocol.StatusAlreadyExists, "session %d already registered", req.SessionId)
			return nil
		}
		log.Debugf("catalog server %d: session %d registered", s.Id, req.SessionId)
	} else if _, ok := s.sessions[req.SessionId]; !ok {
		reply.Status = protocol.Errf(protocol.StatusInvalidSession, "unknown session %d", req.SessionId)
		return nil
	}
	s.sessions[req.SessionId] = now
	return nil
}

func (s *Server) CreateDatabase(req *protocol.CreateDatabaseRequest, reply *protocol.CreateDatabaseReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	if req.DatabaseName == "" || req.DatabaseOid == 0 {
		reply.Status = protocol.Errf(protocol.StatusInvalidArgument, "database name and oid required")
		return nil
	}
	if _, ok := s.databases[req.DatabaseOid]; ok {
		reply.Status = protocol.Errf(protocol.StatusAlreadyExists, "database %d already exists", req.DatabaseOid)
		return nil
	}

	nextOid := req.NextOid
	if nextOid == 0 {
		nextOid = firstNormalOid
	}
	s.databases[req.DatabaseOid] = &databaseState{
		info: protocol.NamespaceInfo{
			Oid:       req.DatabaseOid,
			Name:      req.DatabaseName,
			Colocated: req.Colocated,
		},
		nextOid: nextOid,
	}
	log.Debugf("catalog server %d: database %q (%d) created", s.Id, req.DatabaseName, req.DatabaseOid)
	return nil
}

func (s *Server) CreateTable(req *protocol.CreateTableRequest, reply *protocol.CreateTableReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	if req.TableName == "" || len(req.Columns) == 0 {
		reply.Status = protocol.Errf(protocol.StatusInvalidArgument, "table name and columns required")
		return nil
	}
	if _, ok := s.databases[req.TableId.DatabaseOid]; !ok {
		reply.Status = protocol.Errf(protocol.StatusNotFound, "database %d not found", req.TableId.DatabaseOid)
		return nil
	}
	if _, ok := s.tables[req.TableId]; ok {
		reply.Status = protocol.Errf(protocol.StatusAlreadyExists, "table %s already exists", req.TableId)
		return nil
	}

	columns := append([]protocol.ColumnSchema(nil), req.Columns...)
	for i := range columns {
		if columns[i].Order == 0 {
			columns[i].Order = int32(i + 1)
		}
	}
	s.tables[req.TableId] = &tableState{
		info: protocol.TableSchemaInfo{
			TableId:   req.TableId,
			TableName: req.TableName,
			Columns:   columns,
			Version:   1,
		},
		partitions: protocol.TablePartitions{
			Version: 1,
			Keys:    [][]byte{{}},
		},
	}
	log.Debugf("catalog server %d: table %q (%s) created", s.Id, req.TableName, req.TableId)
	return nil
}

func (s *Server) AlterTable(req *protocol.AlterTableRequest, reply *protocol.AlterTableReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	table, ok := s.tables[req.TableId]
	if !ok {
		reply.Status = protocol.Errf(protocol.StatusNotFound, "table %s not found", req.TableId)
		return nil
	}

	info := table.info
	info.Columns = append([]protocol.ColumnSchema(nil), table.info.Columns...)

	for _, col := range req.AddColumns {
		for _, existing := range info.Columns {
			if existing.Name == col.Name {
				reply.Status = protocol.Errf(protocol.StatusAlreadyExists, "column %q already exists", col.Name)
				return nil
			}
		}
		if col.Order == 0 {
			var max int32
			for _, existing := range info.Columns {
				if existing.Order > max {
					max = existing.Order
				}
			}
			col.Order = max + 1
		}
		info.Columns = append(info.Columns, col)
	}

	for _, name := range req.DropColumns {
		found := false
		for i, existing := range info.Columns {
			if existing.Name != name {
				continue
			}
			if existing.HashKey || existing.RangeKey {
				reply.Status = protocol.Errf(protocol.StatusInvalidArgument, "cannot drop key column %q", name)
				return nil
			}
			info.Columns = append(info.Columns[:i], info.Columns[i+1:]...)
			found = true
			break
		}
		if !found {
			reply.Status = protocol.Errf(protocol.StatusNotFound, "column %q not found", name)
			return nil
		}
	}

	if req.RenameTo != "" {
		info.TableName = req.RenameTo
	}
	info.Version++
	table.info = info
	log.Debugf("catalog server %d: table %s altered to version %d", s.Id, req.TableId, info.Version)
	return nil
}

func (s *Server) OpenTable(req *protocol.OpenTableRequest, reply *protocol.OpenTableReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	table, ok := s.tables[req.TableId]
	if !ok {
		reply.Status = protocol.Errf(protocol.StatusNotFound, "table %s not found", req.TableId)
		return nil
	}

	reply.Info = table.info
	reply.Info.Columns = append([]protocol.ColumnSchema(nil), table.info.Columns...)
	reply.Partitions = protocol.TablePartitions{
		Version: table.partitions.Version,
		Keys:    append([][]byte(nil), table.partitions.Keys...),
	}
	return nil
}

func (s *Server) GetDatabaseInfo(req *protocol.GetDatabaseInfoRequest, reply *protocol.GetDatabaseInfoReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	db, ok := s.databases[req.Oid]
	if !ok {
		reply.Status = protocol.Errf(protocol.StatusNotFound, "database %d not found", req.Oid)
		return nil
	}
	reply.Info = db.info
	return nil
}

func (s *Server) ReserveOids(req *protocol.ReserveOidsRequest, reply *protocol.ReserveOidsReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	if req.Count == 0 {
		reply.Status = protocol.Errf(protocol.StatusInvalidArgument, "count must be positive")
		return nil
	}
	db, ok := s.databases[req.DatabaseOid]
	if !ok {
		reply.Status = protocol.Errf(protocol.StatusNotFound, "database %d not found", req.DatabaseOid)
		return nil
	}

	begin := db.nextOid
	if req.NextOid > begin {
		begin = req.NextOid
	}
	end := begin + req.Count
	db.nextOid = end
	reply.BeginOid = begin
	reply.EndOid = end
	log.Debugf("catalog server %d: reserved oids [%d, %d) in database %d", s.Id, begin, end, req.DatabaseOid)
	return nil
}

func (s *Server) IsInitDbDone(req *protocol.IsInitDbDoneRequest, reply *protocol.IsInitDbDoneReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.checkSessionLocked(req.SessionId); !st.OK() {
		reply.Status = st
		return nil
	}
	reply.Done = s.initDbDone
	return nil
}
