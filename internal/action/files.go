package action

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgeai-dev/ForgeAI/internal/model"
)

func (d *Dispatcher) readFile(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path")
	}
	verdict := d.classifier.CheckFileOperation("read", req.Path)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to read: %v", err), verdict)
	}
	return okResult(truncate(string(data), maxFileOutput), verdict)
}

func (d *Dispatcher) writeFile(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path")
	}
	if req.Content == "" {
		return missingField("content")
	}
	verdict := d.classifier.CheckFileOperation("write", req.Path)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}

	if parent := filepath.Dir(req.Path); parent != "." {
		_ = os.MkdirAll(parent, 0755)
	}
	if err := os.WriteFile(req.Path, []byte(req.Content), 0644); err != nil {
		return errResult(fmt.Sprintf("Failed to write: %v", err), verdict)
	}
	return okResult(fmt.Sprintf("Written %d bytes to %s", len(req.Content), req.Path), verdict)
}

func (d *Dispatcher) deleteFile(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path")
	}
	verdict := d.classifier.CheckFileOperation("delete", req.Path)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}
	if verdict.RequiresConfirmation && !req.Confirmed {
		return needsConfirmResult(verdict)
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to delete: %v", err), verdict)
	}
	if info.IsDir() {
		err = os.RemoveAll(req.Path)
	} else {
		err = os.Remove(req.Path)
	}
	if err != nil {
		return errResult(fmt.Sprintf("Failed to delete: %v", err), verdict)
	}
	return okResult("Deleted: "+req.Path, verdict)
}

func (d *Dispatcher) listDir(req model.ActionRequest) model.ActionResult {
	path := req.Path
	if path == "" {
		path = "."
	}
	verdict := d.classifier.CheckFileOperation("list", path)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to list: %v", err), verdict)
	}
	if len(entries) == 0 {
		return okResult("(empty directory)", verdict)
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		kind, size := "FILE", "-"
		if e.IsDir() {
			kind = "DIR "
		} else if info, err := e.Info(); err == nil {
			size = formatSize(uint64(info.Size()))
		}
		fmt.Fprintf(&b, "%s %s %s", kind, size, e.Name())
	}
	return okResult(truncate(b.String(), maxFileOutput), verdict)
}

func (d *Dispatcher) createDir(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path")
	}
	verdict := d.classifier.CheckFileOperation("create", req.Path)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}

	if err := os.MkdirAll(req.Path, 0755); err != nil {
		return errResult(fmt.Sprintf("Failed to create: %v", err), verdict)
	}
	return okResult("Created directory: "+req.Path, verdict)
}

func (d *Dispatcher) fileExists(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path")
	}
	state := "not found"
	if _, err := os.Stat(req.Path); err == nil {
		state = "exists"
	}
	return okResult(fmt.Sprintf("%s: %s", req.Path, state), model.SafeVerdict())
}

func (d *Dispatcher) fileInfo(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path")
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		return errResult(fmt.Sprintf("Failed: %v", err), model.SafeVerdict())
	}
	kind := "File"
	if info.IsDir() {
		kind = "Directory"
	}
	out := fmt.Sprintf("Path: %s\nType: %s\nSize: %s\nMode: %s\nModified: %s",
		req.Path, kind, formatSize(uint64(info.Size())), info.Mode(), info.ModTime().UTC().Format("2006-01-02T15:04:05Z"))
	return okResult(out, model.SafeVerdict())
}

// moveFile uses path as the source and content as the destination, the
// same two-slot convention the Gateway's tool schema uses.
func (d *Dispatcher) moveFile(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path (source)")
	}
	if req.Content == "" {
		return missingField("content (destination)")
	}
	from := d.classifier.CheckFileOperation("move", req.Path)
	if !from.Allowed {
		return blockedResult(from)
	}
	to := d.classifier.CheckFileOperation("write", req.Content)
	if !to.Allowed {
		return blockedResult(to)
	}

	if err := os.Rename(req.Path, req.Content); err != nil {
		return errResult(fmt.Sprintf("Failed to move: %v", err), from)
	}
	return okResult(fmt.Sprintf("Moved %s -> %s", req.Path, req.Content), from)
}

func (d *Dispatcher) copyFile(req model.ActionRequest) model.ActionResult {
	if req.Path == "" {
		return missingField("path (source)")
	}
	if req.Content == "" {
		return missingField("content (destination)")
	}
	verdict := d.classifier.CheckFileOperation("copy", req.Content)
	if !verdict.Allowed {
		return blockedResult(verdict)
	}

	n, err := copyRegular(req.Path, req.Content)
	if err != nil {
		return errResult(fmt.Sprintf("Failed to copy: %v", err), verdict)
	}
	return okResult(fmt.Sprintf("Copied %s -> %s (%d bytes)", req.Path, req.Content, n), verdict)
}

func copyRegular(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
