package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs/cloudwatchlogsiface"
)

// describeLogGroupsPageSize and filterLogEventsPageSize are the page sizes
// the fetcher paginates at; one rate-limiter token is spent per page,
// including continuations.
const (
	describeLogGroupsPageSize = 50
	filterLogEventsPageSize   = 10000
)

// Client is the subset of the log service the fetcher depends on,
// abstracted so tests can substitute a fake instead of talking to AWS.
type Client interface {
	// DescribeLogGroupsPage returns up to describeLogGroupsPageSize group
	// names starting from nextToken ("" for the first page), and the token
	// for the following page ("" if there is none).
	DescribeLogGroupsPage(ctx context.Context, nextToken string) (names []string, next string, err error)

	// FilterLogEventsPage returns up to filterLogEventsPageSize events for
	// group within [start, end], starting from nextToken, and the token for
	// the following page.
	FilterLogEventsPage(ctx context.Context, group string, start, end time.Time, nextToken string) (events []Event, next string, err error)
}

// sdkClient adapts the AWS SDK v1 CloudWatch Logs client to Client.
type sdkClient struct {
	api cloudwatchlogsiface.CloudWatchLogsAPI
}

// NewClient builds a Client backed by the AWS SDK v1, using the standard
// environment/region credential discovery chain, overridden by region if
// non-empty.
func NewClient(region string) (Client, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("build AWS session: %w", err)
	}
	return &sdkClient{api: cloudwatchlogs.New(sess)}, nil
}

func (c *sdkClient) DescribeLogGroupsPage(ctx context.Context, nextToken string) ([]string, string, error) {
	input := &cloudwatchlogs.DescribeLogGroupsInput{
		Limit: aws.Int64(describeLogGroupsPageSize),
	}
	if nextToken != "" {
		input.NextToken = aws.String(nextToken)
	}

	out, err := c.api.DescribeLogGroupsWithContext(ctx, input)
	if err != nil {
		return nil, "", err
	}

	names := make([]string, 0, len(out.LogGroups))
	for _, g := range out.LogGroups {
		if g.LogGroupName != nil {
			names = append(names, *g.LogGroupName)
		}
	}

	next := ""
	if out.NextToken != nil {
		next = *out.NextToken
	}
	return names, next, nil
}

func (c *sdkClient) FilterLogEventsPage(ctx context.Context, group string, start, end time.Time, nextToken string) ([]Event, string, error) {
	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(group),
		StartTime:    aws.Int64(start.UnixMilli()),
		EndTime:      aws.Int64(end.UnixMilli()),
		Limit:        aws.Int64(filterLogEventsPageSize),
	}
	if nextToken != "" {
		input.NextToken = aws.String(nextToken)
	}

	out, err := c.api.FilterLogEventsWithContext(ctx, input)
	if err != nil {
		return nil, "", err
	}

	events := make([]Event, 0, len(out.Events))
	for _, raw := range out.Events {
		e, err := convertEvent(group, raw)
		if err != nil {
			return nil, "", err
		}
		events = append(events, e)
	}

	next := ""
	if out.NextToken != nil {
		next = *out.NextToken
	}
	return events, next, nil
}

func convertEvent(group string, raw *cloudwatchlogs.FilteredLogEvent) (Event, error) {
	if raw.EventId == nil {
		return Event{}, &MalformedEventError{Field: "event_id"}
	}
	if raw.IngestionTime == nil {
		return Event{}, &MalformedEventError{Field: "ingestion_time"}
	}
	if raw.LogStreamName == nil {
		return Event{}, &MalformedEventError{Field: "log_stream_name"}
	}
	if raw.Message == nil {
		return Event{}, &MalformedEventError{Field: "message"}
	}
	if raw.Timestamp == nil {
		return Event{}, &MalformedEventError{Field: "timestamp"}
	}

	return Event{
		LogGroupName:  group,
		EventID:       *raw.EventId,
		IngestionTime: time.UnixMilli(*raw.IngestionTime).UTC(),
		LogStreamName: *raw.LogStreamName,
		Message:       *raw.Message,
		Timestamp:     time.UnixMilli(*raw.Timestamp).UTC(),
	}, nil
}
