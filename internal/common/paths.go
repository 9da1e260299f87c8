package common

import "strings"

// JoinRemotePath joins a remote root and a slash-separated relative path.
// The result always starts with "/" and never ends with one, the form every
// backend in the engine accepts.
func JoinRemotePath(root, rel string) string {
	root = strings.TrimRight(root, "/")
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	rel = strings.Trim(strings.ReplaceAll(rel, "\\", "/"), "/")
	if rel == "" {
		if root == "" {
			return "/"
		}
		return root
	}
	if root == "/" {
		return "/" + rel
	}
	return root + "/" + rel
}

// NormalizeRemotePath forces a leading slash and strips any trailing slash.
func NormalizeRemotePath(path string) string {
	return JoinRemotePath(path, "")
}

// SplitRemotePath returns the non-empty segments of a remote path.
func SplitRemotePath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
