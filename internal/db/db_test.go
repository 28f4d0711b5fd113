//go:build integration

// Integration tests for the SurrealDB vector-store façade. Requires
// Docker; run with: go test -tags integration ./internal/db/...
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/models"
)

const testDimension = 4

var testDB *Client
var testCollector = metrics.NewCollector()
var testContainer testcontainers.Container

func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:            fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace:      "test",
		Database:       "test",
		Username:       "root",
		Password:       "root",
		AuthLevel:      "root",
		EmbedDimension: testDimension,
	}, nil, testCollector)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)
	os.Exit(code)
}

func vec(a, b, c, d float32) []float32 {
	return []float32{a, b, c, d}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func seedCourse(t *testing.T, title string, titleEmb []float32, chunks []models.CourseChunk, embs [][]float32) {
	t.Helper()
	ctx := context.Background()

	course := &models.Course{
		Title: title,
		Link:  strPtr("https://example.com/" + title),
		Lessons: []models.Lesson{
			{Number: 0, Title: "Overview"},
			{Number: 1, Title: "Deep Dive", Link: strPtr("https://example.com/" + title + "/1")},
		},
	}
	require.NoError(t, testDB.AddCourse(ctx, course, titleEmb))
	require.NoError(t, testDB.AddChunks(ctx, chunks, embs))
}

func TestCourseRoundTrip(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	seedCourse(t, "Intro to Retrieval", vec(1, 0, 0, 0),
		[]models.CourseChunk{
			{Content: "Course Intro to Retrieval Lesson 0 content: vectors", CourseTitle: "Intro to Retrieval", LessonNumber: intPtr(0), Index: 0},
			{Content: "Course Intro to Retrieval Lesson 1 content: indexes", CourseTitle: "Intro to Retrieval", LessonNumber: intPtr(1), LessonLink: strPtr("https://example.com/Intro to Retrieval/1"), Index: 1},
		},
		[][]float32{vec(0, 1, 0, 0), vec(0, 0, 1, 0)},
	)

	exists, err := testDB.CourseExists(ctx, "Intro to Retrieval")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = testDB.CourseExists(ctx, "No Such Course")
	require.NoError(t, err)
	assert.False(t, exists)

	titles, err := testDB.ListCourseTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro to Retrieval"}, titles)

	courses, err := testDB.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)

	chunks, err := testDB.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, chunks)

	outline, err := testDB.GetCourseOutline(ctx, "Intro to Retrieval")
	require.NoError(t, err)
	require.NotNil(t, outline)
	assert.Equal(t, "Intro to Retrieval", outline.Title)
	require.Len(t, outline.Lessons, 2)
	assert.Equal(t, "Deep Dive", outline.Lessons[1].Title)
	require.NotNil(t, outline.Lessons[1].Link)

	missing, err := testDB.GetCourseOutline(ctx, "No Such Course")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	seedCourse(t, "Search Course", vec(1, 0, 0, 0),
		[]models.CourseChunk{
			{Content: "closest", CourseTitle: "Search Course", LessonNumber: intPtr(0), Index: 0},
			{Content: "closer", CourseTitle: "Search Course", LessonNumber: intPtr(0), Index: 1},
			{Content: "farthest", CourseTitle: "Search Course", LessonNumber: intPtr(1), Index: 2},
		},
		[][]float32{
			vec(0, 1, 0, 0),       // identical direction to query
			vec(0, 0.9, 0.1, 0),   // close
			vec(0, 0.1, 0.9, 0.2), // far
		},
	)

	query := vec(0, 1, 0, 0)

	hits, err := testDB.Search(ctx, query, "", nil, 5)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "closest", hits[0].Content)
	assert.Equal(t, "closer", hits[1].Content)
	assert.Equal(t, "farthest", hits[2].Content)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i].Distance, hits[i-1].Distance, "hits must be in ascending distance order")
	}

	// topK bounds the result count.
	hits, err = testDB.Search(ctx, query, "", nil, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// Lesson filter.
	hits, err = testDB.Search(ctx, query, "Search Course", intPtr(1), 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "farthest", hits[0].Content)

	// Course filter that matches nothing.
	hits, err = testDB.Search(ctx, query, "Another Course", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Searches are timed.
	snap := testCollector.Snapshot()
	assert.Positive(t, snap.Operations[metrics.OpSearch].Count)
}

func TestDeleteCourse(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	seedCourse(t, "Ephemeral Course", vec(1, 0, 0, 0),
		[]models.CourseChunk{{Content: "c", CourseTitle: "Ephemeral Course", Index: 0}},
		[][]float32{vec(0, 1, 0, 0)},
	)

	require.NoError(t, testDB.DeleteCourse(ctx, "Ephemeral Course"))

	exists, err := testDB.CourseExists(ctx, "Ephemeral Course")
	require.NoError(t, err)
	assert.False(t, exists)

	chunks, err := testDB.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, chunks)

	// Unknown titles are a no-op.
	require.NoError(t, testDB.DeleteCourse(ctx, "Never Indexed"))
}

func TestResolveCourseTitle(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.WipeData(ctx))

	seedCourse(t, "MCP Fundamentals", vec(1, 0, 0, 0),
		[]models.CourseChunk{{Content: "c", CourseTitle: "MCP Fundamentals", Index: 0}},
		[][]float32{vec(0, 1, 0, 0)},
	)

	// Exact match does not consult the embedding.
	ref, err := testDB.ResolveCourseTitle(ctx, "MCP Fundamentals", nil)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "MCP Fundamentals", ref.Title)
	assert.NotNil(t, ref.Link)

	// Fuzzy match within the distance ceiling.
	ref, err = testDB.ResolveCourseTitle(ctx, "mcp course", vec(0.95, 0.05, 0, 0))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "MCP Fundamentals", ref.Title)

	// Orthogonal name embedding resolves to nothing.
	ref, err = testDB.ResolveCourseTitle(ctx, "cooking for beginners", vec(0, 0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, ref)
}
