package cloudwatch

import (
	"context"
	"sync"
	"time"
)

// fakeClient is an in-memory Client used by tests in this package; it
// never talks to AWS.
type fakeClient struct {
	mu sync.Mutex

	groupNames       []string
	describeCalls    int
	eventsByGroup    map[string][]Event
	filterCallsByGrp map[string]int
	errOnGroup       map[string]error
}

func newFakeClient(groupNames []string) *fakeClient {
	return &fakeClient{
		groupNames:       groupNames,
		eventsByGroup:    make(map[string][]Event),
		filterCallsByGrp: make(map[string]int),
		errOnGroup:       make(map[string]error),
	}
}

func (f *fakeClient) DescribeLogGroupsPage(ctx context.Context, nextToken string) ([]string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeCalls++
	return f.groupNames, "", nil
}

func (f *fakeClient) FilterLogEventsPage(ctx context.Context, group string, start, end time.Time, nextToken string) ([]Event, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filterCallsByGrp[group]++
	if err, ok := f.errOnGroup[group]; ok {
		return nil, "", err
	}
	return f.eventsByGroup[group], "", nil
}
