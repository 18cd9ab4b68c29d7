package cloudwatch

import (
	"context"
	"time"

	"github.com/asimihsan/cwl-mount/internal/logger"
	"github.com/asimihsan/cwl-mount/internal/matcher"
	"github.com/asimihsan/cwl-mount/internal/tree"
)

// mailboxCapacity bounds the actor's inbox to apply backpressure on
// producers.
const mailboxCapacity = 4

// getLogsToDisplayRequest asks the actor to render the logs for exactly
// one of a group name or a group filter, over [Start, End].
type getLogsToDisplayRequest struct {
	GroupName   string
	GroupFilter string
	Start       time.Time
	End         time.Time
	reply       chan<- getLogsToDisplayResult
}

type getLogsToDisplayResult struct {
	Bytes []byte
	Err   error
}

type getLogGroupNamesRequest struct {
	reply chan<- getLogGroupNamesResult
}

type getLogGroupNamesResult struct {
	Names []string
	Err   error
}

type getFirstEventTimeRequest struct {
	Group string
	reply chan<- getFirstEventTimeResult
}

type getFirstEventTimeResult struct {
	Time  time.Time
	Found bool
	Err   error
}

type message any

// Actor is the single logical mailbox owning the rate limiter, cache, and
// fetcher (C3-C5). It serializes external requests but spawns each
// message's handler as an independent goroutine, so handlers may complete
// out of order; the mailbox itself is bounded to apply backpressure.
type Actor struct {
	fetcher *Fetcher
	client  Client
	inbox   chan message
	done    chan struct{}
}

// NewActor starts an actor goroutine reading from a bounded mailbox. Call
// Close to stop it.
func NewActor(fetcher *Fetcher, client Client) *Actor {
	a := &Actor{
		fetcher: fetcher,
		client:  client,
		inbox:   make(chan message, mailboxCapacity),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Close stops accepting new messages. In-flight handlers are abandoned;
// their replies are simply never read (see spec's no-draining shutdown).
func (a *Actor) Close() {
	close(a.done)
}

func (a *Actor) run() {
	for {
		select {
		case msg := <-a.inbox:
			go a.handle(msg)
		case <-a.done:
			return
		}
	}
}

func (a *Actor) handle(msg message) {
	switch m := msg.(type) {
	case getLogGroupNamesRequest:
		names, err := a.fetcher.matchingLogGroups(context.Background(), anyMatcher())
		m.reply <- getLogGroupNamesResult{Names: names, Err: err}
	case getFirstEventTimeRequest:
		t, found, err := a.getFirstEventTime(context.Background(), m.Group)
		m.reply <- getFirstEventTimeResult{Time: t, Found: found, Err: err}
	case getLogsToDisplayRequest:
		bytes, err := a.getLogsToDisplay(context.Background(), m)
		m.reply <- getLogsToDisplayResult{Bytes: bytes, Err: err}
	}
}

// anyMatcher matches every log group name; used by GetLogGroupNames, which
// has no filter of its own.
func anyMatcher() matcher.Matcher {
	m, _ := matcher.Regex(".*")
	return m
}

func (a *Actor) getLogsToDisplay(ctx context.Context, req getLogsToDisplayRequest) ([]byte, error) {
	haveName := req.GroupName != ""
	haveFilter := req.GroupFilter != ""
	if haveName == haveFilter {
		return nil, &InvalidRequestError{Reason: "exactly one of group name or group filter must be set"}
	}

	var (
		m   matcher.Matcher
		err error
	)
	if haveName {
		m, err = matcher.Exact(req.GroupName)
	} else {
		m, err = matcher.Regex(req.GroupFilter)
	}
	if err != nil {
		return nil, &InvalidRequestError{Reason: err.Error()}
	}

	bounds := tree.Bounds{Start: req.Start, End: req.End}
	bytes, err := a.fetcher.Fetch(ctx, m, bounds)
	if err != nil {
		logger.Errorf("GetLogsToDisplay failed: %v", err)
	}
	return bytes, err
}

// getFirstEventTime searches the last 5 years of group for its earliest
// event: it fetches every filter-log-events page over that window and
// returns the smallest timestamp, or found=false when there are no events.
// This is the supplemental operation
// restored from the original Rust implementation; the mount lifecycle
// itself still uses the fixed now-365-days window (see DESIGN.md).
func (a *Actor) getFirstEventTime(ctx context.Context, group string) (time.Time, bool, error) {
	end := time.Now().UTC()
	start := end.AddDate(-5, 0, 0)

	events, err := a.fetcher.fetchGroupEvents(ctx, group, start, end)
	if err != nil {
		return time.Time{}, false, &FilterLogEventsFailedError{Group: group, Underlying: err}
	}
	if len(events) == 0 {
		return time.Time{}, false, nil
	}

	earliest := events[0].Timestamp
	for _, e := range events[1:] {
		if e.Timestamp.Before(earliest) {
			earliest = e.Timestamp
		}
	}
	return earliest, true, nil
}

// Handle is the public request surface other packages (the FS adapter,
// the CLI) use to talk to the actor; it posts to the mailbox and blocks
// on a one-shot reply channel, mirroring the rendezvous bridge used by the
// synchronous FUSE callback layer.
type Handle struct {
	actor *Actor
}

// NewHandle wraps an Actor for request/reply use by callers.
func NewHandle(a *Actor) *Handle {
	return &Handle{actor: a}
}

// GetLogGroupNames returns every discoverable log-group name.
func (h *Handle) GetLogGroupNames(ctx context.Context) ([]string, error) {
	reply := make(chan getLogGroupNamesResult, 1)
	select {
	case h.actor.inbox <- getLogGroupNamesRequest{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.Names, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetFirstEventTime returns the earliest event timestamp for group, or
// found=false if the group has no events in the last 5 years.
func (h *Handle) GetFirstEventTime(ctx context.Context, group string) (t time.Time, found bool, err error) {
	reply := make(chan getFirstEventTimeResult, 1)
	select {
	case h.actor.inbox <- getFirstEventTimeRequest{Group: group, reply: reply}:
	case <-ctx.Done():
		return time.Time{}, false, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.Time, res.Found, res.Err
	case <-ctx.Done():
		return time.Time{}, false, ctx.Err()
	}
}

// GetLogsToDisplay renders the logs for exactly one of groupName/groupFilter
// over [start, end]. Exactly one of groupName/groupFilter must be non-empty.
func (h *Handle) GetLogsToDisplay(ctx context.Context, groupName, groupFilter string, start, end time.Time) ([]byte, error) {
	reply := make(chan getLogsToDisplayResult, 1)
	req := getLogsToDisplayRequest{
		GroupName:   groupName,
		GroupFilter: groupFilter,
		Start:       start,
		End:         end,
		reply:       reply,
	}
	select {
	case h.actor.inbox <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.Bytes, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
