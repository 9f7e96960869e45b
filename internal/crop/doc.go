// Package crop maps a generic crop configuration onto the host
// editor's native options and resolves media references into editable
// local files. It is a pure data-mapping adapter; the only errors it
// produces come from asset resolution.
package crop
