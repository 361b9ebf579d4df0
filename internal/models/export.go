package models

// Scope is the unit being exported.
type Scope string

// Export scopes, named after the request's subject parameter.
const (
	ScopeCluster  Scope = "server"
	ScopeDatabase Scope = "database"
	ScopeSchema   Scope = "schema"
	ScopeTable    Scope = "table"
	ScopeView     Scope = "view"
)

// IsCluster reports whether the scope covers the whole cluster.
func (s Scope) IsCluster() bool {
	return s == ScopeCluster
}

// HasObject reports whether the scope addresses a single table or view.
func (s Scope) HasObject() bool {
	return s == ScopeTable || s == ScopeView
}

// ContentMode selects schema, data or both.
type ContentMode string

// Content modes.
const (
	ContentDataOnly         ContentMode = "dataonly"
	ContentStructureOnly    ContentMode = "structureonly"
	ContentStructureAndData ContentMode = "structureanddata"
)

// DataFormat selects how table data is written.
type DataFormat string

// Data formats.
const (
	FormatSQL  DataFormat = "sql"  // INSERT statements
	FormatCopy DataFormat = "copy" // COPY blocks
)

// DeliveryMode selects how the dump is presented to the caller.
type DeliveryMode string

// Delivery modes, named after the request's output parameter.
const (
	DeliveryInline       DeliveryMode = "show"
	DeliveryDownload     DeliveryMode = "download"
	DeliveryGzipDownload DeliveryMode = "gzipped"
)

// ExportRequest describes a single export.
type ExportRequest struct {
	Server   string // profile name, empty for the default profile
	Scope    Scope
	Database string
	Schema   string
	Object   string // table or view name
	Content  ContentMode
	Format   DataFormat
	OIDs     bool
	Clean    bool
	Delivery DeliveryMode
}

// Target returns a human readable name of what is exported.
func (r ExportRequest) Target() string {
	switch {
	case r.Scope.IsCluster():
		return "cluster"
	case r.Scope.HasObject():
		return r.Database + "." + r.Schema + "." + r.Object
	case r.Scope == ScopeSchema:
		return r.Database + "." + r.Schema
	default:
		return r.Database
	}
}
