// Package cli turns curator command lines into typed commands.
package cli

// Command is one parsed curator invocation. The set of implementations is
// closed; callers dispatch on the concrete type.
type Command interface {
	Name() string
	command()
}

// GetAssets fetches assets by id
type GetAssets struct {
	IDs []string
	One bool
}

// GetLibraries fetches libraries by id
type GetLibraries struct {
	IDs []string
	One bool
}

// GetAlbums fetches full album detail by name
type GetAlbums struct {
	Names []string
	One   bool
	Keys  []string
}

// ListLibraries lists the server's libraries
type ListLibraries struct {
	One            bool
	IncludeUploads bool
}

// ListAlbums lists album summaries by name; no names lists every album
type ListAlbums struct {
	Names []string
	Keys  []string
}

// ListSingleStored lists assets that belong to no duplicate group
type ListSingleStored struct{}

// ListNotInLibrary lists assets with no copy in a library
type ListNotInLibrary struct {
	LibraryID string
}

// ListRedundantFolders lists takeout album folders fully covered by year folders
type ListRedundantFolders struct{}

// ListSubdirs lists the first-level folders under a path
type ListSubdirs struct {
	Path string
}

// Dedup promotes the best copy of every duplicate group and archives the rest
type Dedup struct{}

// Reconcile turns a takeout album folder into an album, or every redundant folder when All is set
type Reconcile struct {
	Folder    string
	LibraryID string
	All       bool
}

// HideAlbum archives every asset of an album
type HideAlbum struct {
	AlbumName string
}

// ExportAlbum copies album originals to a local directory
type ExportAlbum struct {
	AlbumName   string
	Destination string
}

// ReassignFaces moves an asset's face rows from one person to another
type ReassignFaces struct {
	AssetID string
	From    string
	To      string
}

// RunQuery runs a statement through the database query service
type RunQuery struct {
	SQL   string
	Index string
}

// History lists recent journal runs
type History struct {
	Limit int

	// Command keeps only runs of this journal command, e.g. "dedup"
	Command string
}

func (GetAssets) Name() string            { return "get asset" }
func (GetLibraries) Name() string         { return "get library" }
func (GetAlbums) Name() string            { return "get album" }
func (ListLibraries) Name() string        { return "list library" }
func (ListAlbums) Name() string           { return "list album" }
func (ListSingleStored) Name() string     { return "list single-stored" }
func (ListNotInLibrary) Name() string     { return "list not-in-library" }
func (ListRedundantFolders) Name() string { return "list redundant-folders" }
func (ListSubdirs) Name() string          { return "list subdirs" }
func (Dedup) Name() string                { return "dedup" }
func (Reconcile) Name() string            { return "reconcile" }
func (HideAlbum) Name() string            { return "album hide" }
func (ExportAlbum) Name() string          { return "album export" }
func (ReassignFaces) Name() string        { return "person reassign" }
func (RunQuery) Name() string             { return "db" }
func (History) Name() string              { return "history" }

func (GetAssets) command()            {}
func (GetLibraries) command()         {}
func (GetAlbums) command()            {}
func (ListLibraries) command()        {}
func (ListAlbums) command()           {}
func (ListSingleStored) command()     {}
func (ListNotInLibrary) command()     {}
func (ListRedundantFolders) command() {}
func (ListSubdirs) command()          {}
func (Dedup) command()                {}
func (Reconcile) command()            {}
func (HideAlbum) command()            {}
func (ExportAlbum) command()          {}
func (ReassignFaces) command()        {}
func (RunQuery) command()             {}
func (History) command()              {}
