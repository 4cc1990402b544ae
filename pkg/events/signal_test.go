package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

func catalogData() *CourseCatalogData {
	return &CourseCatalogData{
		CourseKey: opaquekeys.MustParseCourseKey("course-v1:edX+DemoX+Demo_Course"),
		Name:      "Demonstration Course",
	}
}

func TestSendDispatchesInOrderWithMetadata(t *testing.T) {
	catalog := NewCatalog(WithSource("openedx/cms/web"))
	signal := catalog.CourseCatalogInfoChanged

	var calls []string
	var seen Metadata
	require.NoError(t, signal.Connect("first", func(ctx context.Context, meta Metadata, data *CourseCatalogData) error {
		calls = append(calls, "first:"+data.CourseKey.String())
		seen = meta
		return nil
	}))
	require.NoError(t, signal.Connect("second", func(ctx context.Context, meta Metadata, data *CourseCatalogData) error {
		calls = append(calls, "second")
		return nil
	}))

	require.NoError(t, signal.Send(context.Background(), catalogData()))
	assert.Equal(t, []string{"first:course-v1:edX+DemoX+Demo_Course", "second"}, calls)
	assert.Equal(t, CourseCatalogInfoChangedType, seen.EventType)
	assert.Equal(t, "openedx/cms/web", seen.Source)
	assert.NotEmpty(t, seen.ID.String())
	assert.False(t, seen.Time.IsZero())
}

func TestSendStopsAtFirstError(t *testing.T) {
	signal := NewCatalog().CourseCatalogInfoChanged
	boom := errors.New("boom")
	secondCalled := false
	require.NoError(t, signal.Connect("failing", func(ctx context.Context, meta Metadata, data *CourseCatalogData) error {
		return boom
	}))
	require.NoError(t, signal.Connect("after", func(ctx context.Context, meta Metadata, data *CourseCatalogData) error {
		secondCalled = true
		return nil
	}))

	err := signal.Send(context.Background(), catalogData())
	require.ErrorIs(t, err, boom)
	var recvErr ReceiverError
	require.ErrorAs(t, err, &recvErr)
	assert.Equal(t, "failing", recvErr.Receiver)
	assert.False(t, secondCalled)
}

func TestSendRobustCollectsFailures(t *testing.T) {
	var observed []string
	signal := NewCatalog(WithObserver(func(eventType, receiver string, err error) {
		observed = append(observed, receiver)
	})).CourseCatalogInfoChanged
	require.NoError(t, signal.Connect("a", func(ctx context.Context, meta Metadata, data *CourseCatalogData) error {
		return errors.New("a failed")
	}))
	require.NoError(t, signal.Connect("b", func(ctx context.Context, meta Metadata, data *CourseCatalogData) error {
		return nil
	}))

	failures := signal.SendRobust(context.Background(), catalogData())
	require.Len(t, failures, 1)
	assert.Equal(t, "a", failures[0].Receiver)
	assert.Equal(t, []string{"a", "b"}, observed)
}

func TestConnectValidation(t *testing.T) {
	signal := NewCatalog().CourseCatalogInfoChanged
	assert.ErrorIs(t, signal.Connect("nil", nil), ErrNilReceiver)

	noop := func(ctx context.Context, meta Metadata, data *CourseCatalogData) error { return nil }
	require.NoError(t, signal.Connect("noop", noop))
	assert.ErrorIs(t, signal.Connect("noop", noop), ErrDuplicateReceiver)
	assert.Equal(t, []string{"noop"}, signal.Receivers())

	assert.True(t, signal.Disconnect("noop"))
	assert.False(t, signal.Disconnect("noop"))
	assert.Empty(t, signal.Receivers())
}
