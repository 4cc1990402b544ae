package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"id", "course_id", "is_archived"},
		Rows: []Row{
			{"id": int64(1), "course_id": "course-v1:edX+DemoX+Demo_Course", "is_archived": true},
			{"id": int64(2), "course_id": "course-v1:edX+Demo,X+2025"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	assert.Equal(t, "id,course_id,is_archived\n1,course-v1:edX+DemoX+Demo_Course,true\n2,\"course-v1:edX+Demo,X+2025\",\n", string(out))
}

func TestCSVRenderWithBOM(t *testing.T) {
	out, err := NewCSVExporter(WithBOM()).Render(Dataset{Headers: []string{"id"}, Rows: []Row{{"id": 7}}})
	require.NoError(t, err)

	assert.Equal(t, "\xEF\xBB\xBFid\n7\n", string(out))
}

type courseKey string

func (k courseKey) String() string { return "course-v1:" + string(k) }

func TestCell(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	archived := time.Date(2026, 3, 1, 9, 30, 0, 0, jakarta)
	var missing *time.Time

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "edX", "edX"},
		{"bool", false, "false"},
		{"int64", int64(42), "42"},
		{"time converted to utc", archived, "2026-03-01T02:30:00Z"},
		{"zero time", time.Time{}, ""},
		{"time pointer", &archived, "2026-03-01T02:30:00Z"},
		{"nil time pointer", missing, ""},
		{"stringer", courseKey("edX+DemoX+Demo_Course"), "course-v1:edX+DemoX+Demo_Course"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Cell(tc.in))
		})
	}
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "empty")
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Course archive statuses")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
