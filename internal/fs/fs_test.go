package fs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimihsan/cwl-mount/internal/cache"
	"github.com/asimihsan/cwl-mount/internal/clock"
	"github.com/asimihsan/cwl-mount/internal/cloudwatch"
	"github.com/asimihsan/cwl-mount/internal/ratelimit"
	"github.com/asimihsan/cwl-mount/internal/tree"
)

// fakeCWClient is a minimal cloudwatch.Client double; only the methods
// exercised by the tests below return non-trivial data.
type fakeCWClient struct {
	groups []string
	events map[string]string // group -> rendered single-line message
}

func (f *fakeCWClient) DescribeLogGroupsPage(ctx context.Context, nextToken string) ([]string, string, error) {
	return f.groups, "", nil
}

func (f *fakeCWClient) FilterLogEventsPage(ctx context.Context, group string, start, end time.Time, nextToken string) ([]cloudwatch.Event, string, error) {
	msg, ok := f.events[group]
	if !ok {
		return nil, "", nil
	}
	return []cloudwatch.Event{{LogStreamName: "s1", Message: msg, Timestamp: start}}, "", nil
}

func newTestFS(t *testing.T, groupName string) (*fileSystem, *tree.Tree) {
	t.Helper()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tr := tree.Build(now.Add(-time.Hour), now)

	client := &fakeCWClient{groups: []string{groupName}, events: map[string]string{groupName: "hello world"}}
	h := newInProcessHandle(t, now, client)

	fsys := &fileSystem{
		tree:       tr,
		actor:      h,
		groupName:  groupName,
		nextHandle: 1,
	}
	return fsys, tr
}

// newInProcessHandle wires a real Actor/Fetcher stack over an in-memory
// client so ReadFile exercises the full path without talking to AWS.
func newInProcessHandle(t *testing.T, now time.Time, client cloudwatch.Client) *cloudwatch.Handle {
	t.Helper()
	clk := clock.NewFakeClock(now)
	c, err := cache.New(clk, cache.Capacity)
	require.NoError(t, err)
	limiter := ratelimit.New(1000)
	fetcher := cloudwatch.NewFetcher(limiter, c, client)
	actor := cloudwatch.NewActor(fetcher, client)
	t.Cleanup(actor.Close)
	return cloudwatch.NewHandle(actor)
}

func findMinuteFile(t *testing.T, tr *tree.Tree) tree.Node {
	t.Helper()
	root := tr.Root()
	year, _ := tr.GetChild(root.Inode, "2024")
	month, _ := tr.GetChild(year.Inode, "06")
	day, _ := tr.GetChild(month.Inode, "15")
	hour, ok := tr.GetChild(day.Inode, "11-59")
	require.True(t, ok, "expected 11-59 minute file to exist")
	return hour
}

func TestLookUpInodeResolvesChild(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	root := tr.Root()

	op := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(root.Inode), Name: "2024"}
	err := fsys.LookUpInode(context.Background(), op)
	require.NoError(t, err)

	child, ok := tr.GetChild(root.Inode, "2024")
	require.True(t, ok)
	assert.Equal(t, fuseops.InodeID(child.Inode), op.Entry.Child)
}

func TestLookUpInodeMissingChildIsENOENT(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	root := tr.Root()

	op := &fuseops.LookUpInodeOp{Parent: fuseops.InodeID(root.Inode), Name: "does-not-exist"}
	err := fsys.LookUpInode(context.Background(), op)
	assert.Equal(t, fuse.ENOENT, err)
}

func TestGetInodeAttributesDirectoryVsFile(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	root := tr.Root()

	op := &fuseops.GetInodeAttributesOp{Inode: fuseops.InodeID(root.Inode)}
	require.NoError(t, fsys.GetInodeAttributes(context.Background(), op))
	assert.True(t, op.Attributes.Mode&os.ModeDir != 0)
	assert.EqualValues(t, 2, op.Attributes.Nlink)

	file := findMinuteFile(t, tr)
	op = &fuseops.GetInodeAttributesOp{Inode: fuseops.InodeID(file.Inode)}
	require.NoError(t, fsys.GetInodeAttributes(context.Background(), op))
	assert.True(t, op.Attributes.Mode&os.ModeDir == 0)
	assert.EqualValues(t, 1, op.Attributes.Nlink)
	assert.EqualValues(t, 0o777, op.Attributes.Mode.Perm())
}

func TestReadDirListsDotDotDotAndChildrenSorted(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	root := tr.Root()

	opDir := &fuseops.OpenDirOp{Inode: fuseops.InodeID(root.Inode)}
	require.NoError(t, fsys.OpenDir(context.Background(), opDir))

	buf := make([]byte, 64*1024)
	op := &fuseops.ReadDirOp{Inode: fuseops.InodeID(root.Inode), Dst: buf}
	require.NoError(t, fsys.ReadDir(context.Background(), op))
	assert.Greater(t, op.BytesRead, 0)

	// The tree spans only 2024, so the root holds ".", ".." (both the root
	// itself) and the single year directory, in that order.
	year, ok := tr.GetChild(root.Inode, "2024")
	require.True(t, ok)
	want := make([]byte, 64*1024)
	wantLen := 0
	for _, d := range []fuseutil.Dirent{
		{Offset: 1, Inode: fuseops.InodeID(root.Inode), Name: ".", Type: fuseutil.DT_Directory},
		{Offset: 2, Inode: fuseops.InodeID(root.Inode), Name: "..", Type: fuseutil.DT_Directory},
		{Offset: 3, Inode: fuseops.InodeID(year.Inode), Name: "2024", Type: fuseutil.DT_Directory},
	} {
		wantLen += fuseutil.WriteDirent(want[wantLen:], d)
	}
	assert.Equal(t, want[:wantLen], buf[:op.BytesRead])
}

func TestOpenFileRejectsWriteAndDirectories(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	root := tr.Root()
	file := findMinuteFile(t, tr)

	// Opening a directory for any access is refused.
	dirOp := &fuseops.OpenFileOp{Inode: fuseops.InodeID(root.Inode)}
	assert.Equal(t, fuse.EACCES, fsys.OpenFile(context.Background(), dirOp))

	// Write-only and read-write opens on a file are refused.
	wrOp := &fuseops.OpenFileOp{Inode: fuseops.InodeID(file.Inode), OpenFlags: fuseops.OpenFlags(os.O_WRONLY)}
	assert.Equal(t, fuse.EACCES, fsys.OpenFile(context.Background(), wrOp))

	rwOp := &fuseops.OpenFileOp{Inode: fuseops.InodeID(file.Inode), OpenFlags: fuseops.OpenFlags(os.O_RDWR)}
	assert.Equal(t, fuse.EACCES, fsys.OpenFile(context.Background(), rwOp))

	// Read-only with truncate is refused.
	truncOp := &fuseops.OpenFileOp{Inode: fuseops.InodeID(file.Inode), OpenFlags: fuseops.OpenFlags(os.O_RDONLY | os.O_TRUNC)}
	assert.Equal(t, fuse.EACCES, fsys.OpenFile(context.Background(), truncOp))
}

func TestOpenFileReadOnlySucceedsWithDirectIO(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	file := findMinuteFile(t, tr)

	op := &fuseops.OpenFileOp{Inode: fuseops.InodeID(file.Inode), OpenFlags: fuseops.OpenFlags(os.O_RDONLY)}
	require.NoError(t, fsys.OpenFile(context.Background(), op))
	assert.True(t, op.UseDirectIO)
	assert.NotZero(t, op.Handle)
}

func TestReadFileReturnsRenderedLogs(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	file := findMinuteFile(t, tr)

	buf := make([]byte, 4096)
	op := &fuseops.ReadFileOp{Inode: fuseops.InodeID(file.Inode), Dst: buf}
	require.NoError(t, fsys.ReadFile(context.Background(), op))
	assert.Equal(t, "[s1] hello world", string(buf[:op.BytesRead]))
}

func TestReadFileOffsetPastEndReturnsZeroBytes(t *testing.T) {
	fsys, tr := newTestFS(t, "g")
	file := findMinuteFile(t, tr)

	buf := make([]byte, 4096)
	op := &fuseops.ReadFileOp{Inode: fuseops.InodeID(file.Inode), Dst: buf, Offset: 1 << 20}
	require.NoError(t, fsys.ReadFile(context.Background(), op))
	assert.Zero(t, op.BytesRead)
}
