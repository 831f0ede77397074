package entities

import "strings"

// PathPrefix returns the first three "/"-separated segments of p joined back together.
// "/photos/wedding/img.jpg" -> "/photos/wedding", "upload/upload/u1/aa/x.jpg" -> "upload/upload/u1".
func PathPrefix(p string) string {
	parts := strings.SplitN(p, "/", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "/")
}

// HasPathPrefix reports whether p equals prefix or lies below it on a segment boundary
func HasPathPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// TrimFolder strips leading and trailing slashes so folders from different
// endpoints ("/photos/x", "photos/x/") compare equal.
func TrimFolder(folder string) string {
	return strings.Trim(folder, "/")
}

// IsUnderFolder reports whether folder is root itself or any folder below it
func IsUnderFolder(folder, root string) bool {
	return HasPathPrefix(TrimFolder(folder), TrimFolder(root))
}

// FolderTail returns the last path segment of a folder
func FolderTail(folder string) string {
	folder = TrimFolder(folder)
	if i := strings.LastIndex(folder, "/"); i >= 0 {
		return folder[i+1:]
	}
	return folder
}
