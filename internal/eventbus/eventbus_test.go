package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/jobs"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

type streamStub struct {
	mu    sync.Mutex
	acked []string
	added []*redis.XAddArgs
}

func (s *streamStub) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetErr(errors.New("BUSYGROUP Consumer Group name already exists"))
	return cmd
}

func (s *streamStub) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	<-ctx.Done()
	cmd := redis.NewXStreamSliceCmd(ctx)
	cmd.SetErr(ctx.Err())
	return cmd
}

func (s *streamStub) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = append(s.acked, ids...)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func (s *streamStub) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, a)
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("1700000000000-0")
	return cmd
}

func (s *streamStub) ackedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.acked...)
}

func sampleEvent(catalog *events.Catalog) (events.Metadata, *events.CourseCatalogData) {
	return catalog.CourseCatalogInfoChanged.NewMetadata(), &events.CourseCatalogData{
		CourseKey: opaquekeys.MustParseCourseKey("course-v1:edX+DemoX+Demo_Course"),
		Name:      "Demonstration Course",
		ScheduleData: events.CourseScheduleData{
			Start:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Pacing: "instructor",
		},
	}
}

func TestProducerOutputDecodes(t *testing.T) {
	catalog := events.NewCatalog(events.WithSource("openedx/cms/web"))
	meta, data := sampleEvent(catalog)
	stub := &streamStub{}

	id, err := NewProducer(stub, "course-catalog-info-changed", 1000).Publish(context.Background(), meta, data)
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-0", id)
	require.Len(t, stub.added, 1)
	assert.True(t, stub.added[0].Approx)

	values := stub.added[0].Values.(map[string]interface{})
	msg, err := Decode(redis.XMessage{ID: id, Values: values})
	require.NoError(t, err)
	assert.Equal(t, meta.ID, msg.Meta.ID)
	assert.Equal(t, "openedx/cms/web", msg.Meta.Source)
	assert.Equal(t, events.CourseCatalogInfoChangedType, msg.Meta.EventType)
	assert.True(t, meta.Time.Equal(msg.Meta.Time))
	assert.Equal(t, data.CourseKey, msg.Data.CourseKey)
	assert.Equal(t, "instructor", msg.Data.ScheduleData.Pacing)
}

func TestDecodeRejectsBadEntries(t *testing.T) {
	_, err := Decode(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"id": "nope"}})
	assert.Error(t, err)

	catalog := events.NewCatalog()
	meta, data := sampleEvent(catalog)
	values, err := Encode(meta, data)
	require.NoError(t, err)
	values["event_data"] = `{"course_key": "bogus"}`
	_, err = Decode(redis.XMessage{ID: "1-0", Values: values})
	assert.Error(t, err)
}

func TestConsumerDeliversAndAcks(t *testing.T) {
	catalog := events.NewCatalog()
	var got []string
	require.NoError(t, catalog.CourseCatalogInfoChanged.Connect("record", func(_ context.Context, meta events.Metadata, data *events.CourseCatalogData) error {
		got = append(got, data.CourseKey.String())
		return nil
	}))
	stub := &streamStub{}
	consumer := NewConsumer(stub, catalog, Config{Stream: "s", Group: "g", Consumer: "c"}, nil)

	meta, data := sampleEvent(catalog)
	err := consumer.handle(context.Background(), jobs.Job[Message]{ID: "5-0", Payload: Message{StreamID: "5-0", Meta: meta, Data: data}})
	require.NoError(t, err)
	assert.Equal(t, []string{"course-v1:edX+DemoX+Demo_Course"}, got)
	assert.Equal(t, []string{"5-0"}, stub.ackedIDs())
}

func TestConsumerLeavesFailedEventsPending(t *testing.T) {
	catalog := events.NewCatalog()
	require.NoError(t, catalog.CourseCatalogInfoChanged.Connect("fail", func(context.Context, events.Metadata, *events.CourseCatalogData) error {
		return errors.New("downstream unavailable")
	}))
	stub := &streamStub{}
	consumer := NewConsumer(stub, catalog, Config{Stream: "s", Group: "g"}, nil)

	meta, data := sampleEvent(catalog)
	err := consumer.handle(context.Background(), jobs.Job[Message]{ID: "6-0", Payload: Message{Meta: meta, Data: data}})
	assert.Error(t, err)
	assert.Empty(t, stub.ackedIDs())

	consumer.deadLetter(jobs.Job[Message]{ID: "6-0", Payload: Message{Meta: meta}}, err)
	assert.Equal(t, []string{"6-0"}, stub.ackedIDs())
}

func TestConsumerAcksUndecodableAndForeignEvents(t *testing.T) {
	catalog := events.NewCatalog()
	stub := &streamStub{}
	consumer := NewConsumer(stub, catalog, Config{Stream: "s", Group: "g"}, nil)

	consumer.dispatch(context.Background(), redis.XMessage{ID: "7-0", Values: map[string]interface{}{}})

	meta, data := sampleEvent(catalog)
	meta.EventType = "org.openedx.learning.course.enrollment.created.v1"
	values, err := Encode(meta, data)
	require.NoError(t, err)
	consumer.dispatch(context.Background(), redis.XMessage{ID: "8-0", Values: values})

	assert.Equal(t, []string{"7-0", "8-0"}, stub.ackedIDs())
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := NewConsumer(&streamStub{}, events.NewCatalog(), Config{Stream: "s", Group: "g", Block: 10 * time.Millisecond}, nil)

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestEmitterSendsLocallyThenPublishes(t *testing.T) {
	catalog := events.NewCatalog(events.WithSource("openedx/cms/web"))
	var received []events.Metadata
	require.NoError(t, catalog.CourseCatalogInfoChanged.Connect("recorder", func(_ context.Context, meta events.Metadata, _ *events.CourseCatalogData) error {
		received = append(received, meta)
		return nil
	}))
	stub := &streamStub{}
	_, data := sampleEvent(catalog)

	meta, err := NewEmitter(catalog, NewProducer(stub, "catalog", 0), nil).Emit(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, meta.ID, received[0].ID)
	require.Len(t, stub.added, 1)
	assert.Equal(t, meta.ID.String(), stub.added[0].Values.(map[string]interface{})["id"])
}

func TestEmitterSkipsPublishWhenReceiverFails(t *testing.T) {
	catalog := events.NewCatalog()
	require.NoError(t, catalog.CourseCatalogInfoChanged.Connect("broken", func(context.Context, events.Metadata, *events.CourseCatalogData) error {
		return errors.New("boom")
	}))
	stub := &streamStub{}
	_, data := sampleEvent(catalog)

	_, err := NewEmitter(catalog, NewProducer(stub, "catalog", 0), nil).Emit(context.Background(), data)
	require.Error(t, err)
	assert.Empty(t, stub.added)
}
