// Package opaquekeys parses the platform's course identifiers.
package opaquekeys

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CourseKeyPrefix is the namespace of split-modulestore course keys.
const CourseKeyPrefix = "course-v1"

var (
	ErrInvalidCourseKey = errors.New("invalid course key")

	courseKeyPattern = regexp.MustCompile(`^course-v1:([\w\-~.:]+)\+([\w\-~.:]+)\+([\w\-~.:]+)$`)
)

// CourseKey identifies a course run as org, course and run.
type CourseKey struct {
	Org    string
	Course string
	Run    string
}

// ParseCourseKey parses "course-v1:ORG+COURSE+RUN".
func ParseCourseKey(raw string) (CourseKey, error) {
	m := courseKeyPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidCourseKey, raw)
	}
	return CourseKey{Org: m[1], Course: m[2], Run: m[3]}, nil
}

// MustParseCourseKey panics on malformed input; intended for fixtures.
func MustParseCourseKey(raw string) CourseKey {
	key, err := ParseCourseKey(raw)
	if err != nil {
		panic(err)
	}
	return key
}

// IsZero reports whether the key is unset.
func (k CourseKey) IsZero() bool {
	return k.Org == "" && k.Course == "" && k.Run == ""
}

func (k CourseKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s+%s+%s", CourseKeyPrefix, k.Org, k.Course, k.Run)
}

// MarshalText implements encoding.TextMarshaler.
func (k CourseKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CourseKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = CourseKey{}
		return nil
	}
	parsed, err := ParseCourseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value implements driver.Valuer.
func (k CourseKey) Value() (driver.Value, error) {
	return k.String(), nil
}

// Scan implements sql.Scanner.
func (k *CourseKey) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*k = CourseKey{}
		return nil
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("scan course key: unsupported type %T", src)
	}
}
