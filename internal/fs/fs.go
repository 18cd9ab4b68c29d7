// Package fs implements C7: the kernel filesystem callback surface over
// jacobsa/fuse's fuseops/fuseutil, bridging the blocking callback thread
// to the asynchronous fetch actor.
package fs

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"syscall"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/asimihsan/cwl-mount/internal/cloudwatch"
	"github.com/asimihsan/cwl-mount/internal/logger"
	"github.com/asimihsan/cwl-mount/internal/metrics"
	"github.com/asimihsan/cwl-mount/internal/tree"
)

// entryTTL is the attribute/entry cache TTL reported to the kernel.
const entryTTL = time.Second

// ServerConfig is everything needed to build the filesystem server.
type ServerConfig struct {
	Tree        *tree.Tree
	Actor       *cloudwatch.Handle
	GroupName   string
	GroupFilter string
	Metrics     *metrics.Handle
}

// NewServer wraps a fileSystem in a fuse.Server.
func NewServer(cfg *ServerConfig) (fuse.Server, error) {
	if (cfg.GroupName == "") == (cfg.GroupFilter == "") {
		return nil, fmt.Errorf("exactly one of group name or group filter must be set")
	}

	fs := &fileSystem{
		tree:        cfg.Tree,
		actor:       cfg.Actor,
		groupName:   cfg.GroupName,
		groupFilter: cfg.GroupFilter,
		metrics:     cfg.Metrics,
		nextHandle:  1,
	}
	return fuseutil.NewFileSystemServer(fs), nil
}

// fileSystem implements fuseutil.FileSystem over the immutable
// time-indexed tree, resolving file reads through the fetch actor. Each
// callback receives a reply handle (the op) and must return exactly once;
// fuseutil's dispatcher turns the returned error into the op's reply.
type fileSystem struct {
	fuseutil.NotImplementedFileSystem

	tree        *tree.Tree
	actor       *cloudwatch.Handle
	groupName   string
	groupFilter string
	metrics     *metrics.Handle

	mu         sync.Mutex
	nextHandle fuseops.HandleID
}

func (fs *fileSystem) allocHandle() fuseops.HandleID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h := fs.nextHandle
	fs.nextHandle++
	return h
}

func (fs *fileSystem) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	return nil
}

func (fs *fileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	child, ok := fs.tree.GetChild(uint64(op.Parent), op.Name)
	if !ok {
		return fuse.ENOENT
	}
	op.Entry = fs.childEntry(child)
	return nil
}

func (fs *fileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	n, ok := fs.tree.GetByInode(uint64(op.Inode))
	if !ok {
		return fuse.ENOENT
	}
	op.Attributes = fs.attributesFor(n)
	op.AttributesExpiration = time.Now().Add(entryTTL)
	return nil
}

func (fs *fileSystem) childEntry(n tree.Node) fuseops.ChildInodeEntry {
	now := time.Now()
	return fuseops.ChildInodeEntry{
		Child:                fuseops.InodeID(n.Inode),
		Attributes:           fs.attributesFor(n),
		AttributesExpiration: now.Add(entryTTL),
		EntryExpiration:      now.Add(entryTTL),
	}
}

var epoch = time.Unix(0, 0).UTC()

func (fs *fileSystem) attributesFor(n tree.Node) fuseops.InodeAttributes {
	attrs := fuseops.InodeAttributes{
		Atime:  epoch,
		Mtime:  epoch,
		Ctime:  epoch,
		Crtime: epoch,
	}

	if n.Kind == tree.Directory {
		attrs.Mode = 0o777 | os.ModeDir
		attrs.Nlink = 2
		attrs.Size = 0
	} else {
		attrs.Mode = 0o777
		attrs.Nlink = 1
		attrs.Size = math.MaxInt32
	}
	return attrs
}

func (fs *fileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	n, ok := fs.tree.GetByInode(uint64(op.Inode))
	if !ok || n.Kind != tree.Directory {
		return fuse.ENOENT
	}
	op.Handle = fs.allocHandle()
	return nil
}

func (fs *fileSystem) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	n, ok := fs.tree.GetByInode(uint64(op.Inode))
	if !ok {
		return fuse.ENOENT
	}

	parent, _ := fs.tree.ParentForLs(uint64(op.Inode))
	children, _ := fs.tree.ListChildren(uint64(op.Inode))

	entries := make([]fuseutil.Dirent, 0, 2+len(children))
	entries = append(entries,
		fuseutil.Dirent{Offset: 1, Inode: fuseops.InodeID(n.Inode), Name: ".", Type: fuseutil.DT_Directory},
		fuseutil.Dirent{Offset: 2, Inode: fuseops.InodeID(parent.Inode), Name: "..", Type: fuseutil.DT_Directory},
	)
	for i, c := range children {
		entries = append(entries, fuseutil.Dirent{
			Offset: fuseops.DirOffset(3 + i),
			Inode:  fuseops.InodeID(c.Inode),
			Name:   c.Name,
			Type:   direntType(c.Kind),
		})
	}

	if op.Offset > fuseops.DirOffset(len(entries)) {
		return nil
	}
	entries = entries[op.Offset:]

	for _, e := range entries {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], e)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func direntType(k tree.Kind) fuseutil.DirentType {
	if k == tree.Directory {
		return fuseutil.DT_Directory
	}
	return fuseutil.DT_File
}

func (fs *fileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	n, ok := fs.tree.GetByInode(uint64(op.Inode))
	if !ok {
		return fuse.ENOENT
	}
	if n.Kind == tree.Directory {
		return fuse.EACCES
	}

	if op.OpenFlags.IsWriteOnly() || op.OpenFlags.IsReadWrite() {
		return fuse.EACCES
	}
	if !op.OpenFlags.IsReadOnly() {
		return fuse.EINVAL
	}
	if uint32(op.OpenFlags)&syscall.O_TRUNC != 0 {
		return fuse.EACCES
	}

	op.Handle = fs.allocHandle()
	op.UseDirectIO = true
	if fs.metrics != nil {
		fs.metrics.OpenFileHandles.Inc()
	}
	return nil
}

// ReleaseFileHandle is only relevant for the open-file-handle gauge; the
// implementation does not track per-handle state (see §4.3).
func (fs *fileSystem) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) error {
	if fs.metrics != nil {
		fs.metrics.OpenFileHandles.Dec()
	}
	return nil
}

func (fs *fileSystem) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	n, ok := fs.tree.GetByInode(uint64(op.Inode))
	if !ok || n.Kind != tree.File {
		return fuse.ENOENT
	}

	blob, err := fs.actor.GetLogsToDisplay(ctx, fs.groupName, fs.groupFilter, n.Bounds.Start, n.Bounds.End)
	if err != nil {
		logger.Errorf("read %s: %v", n.Name, err)
		return fuse.ENOENT
	}

	offset := int(op.Offset)
	if offset >= len(blob) {
		op.BytesRead = 0
		return nil
	}

	readSize := len(op.Dst)
	if max := len(blob) - offset; readSize > max {
		readSize = max
	}
	op.BytesRead = copy(op.Dst, blob[offset:offset+readSize])
	return nil
}
