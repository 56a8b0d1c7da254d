// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table      string
	ID         string
	ActorID    string
	TargetID   string
	TargetType string
	Action     string
	Status     string
	Agent      string
	IPAddress  string
	Meta       string
	CreatedAt  string
}

// SystemAuditLog is the schema definition for system.auditlog
var SystemAuditLog = SystemAuditLogTable{
	Table:      "system.auditlog",
	ID:         "id",
	ActorID:    "actorid",
	TargetID:   "targetid",
	TargetType: "targettype",
	Action:     "action",
	Status:     "status",
	Agent:      "agent",
	IPAddress:  "ipaddress",
	Meta:       "meta",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names
func (t SystemAuditLogTable) Columns() []string {
	return []string{
		t.ID, t.ActorID, t.TargetID, t.TargetType, t.Action, t.Status,
		t.Agent, t.IPAddress, t.Meta, t.CreatedAt,
	}
}
