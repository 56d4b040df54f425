package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ideafoundry/internal/models"
	"ideafoundry/internal/repository"
	"ideafoundry/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"  multiple   spaces--here ", "multiple-spaces-here"},
		{"Go 1.26 Release Notes", "go-126-release-notes"},
		{"--edge--", "edge"},
		{"Ünïcödé only", "ncd-only"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugify_TruncatesToColumnWidth(t *testing.T) {
	slug := Slugify(strings.Repeat("a", 300))
	assert.Len(t, slug, models.MaxSlugLength)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "web-dev"}, NormalizeTags(" Go , Web Dev,, go "))
	assert.Equal(t, []string{}, NormalizeTags(""))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "post", withSuffix("post", 1))
	assert.Equal(t, "post-3", withSuffix("post", 3))

	long := strings.Repeat("a", models.MaxSlugLength)
	got := withSuffix(long, 12)
	assert.Len(t, got, models.MaxSlugLength)
	assert.True(t, strings.HasSuffix(got, "-12"))
}

func TestEnsureUniqueSlug(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	svc := NewPostService(repository.NewStore(db), nil, nil, PostServiceConfig{SlugMaxAttempts: 5})
	ctx := context.Background()

	slug, err := svc.EnsureUniqueSlug(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", slug)

	slug, err = svc.EnsureUniqueSlug(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "post", slug)

	testutil.CreatePost(t, db, alice, "base")
	for n := 2; n <= 4; n++ {
		testutil.CreatePost(t, db, alice, fmt.Sprintf("base-%d", n))
	}
	slug, err = svc.EnsureUniqueSlug(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, "base-5", slug)

	testutil.CreatePost(t, db, alice, "base-5")
	_, err = svc.EnsureUniqueSlug(ctx, "base")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeSlugExhausted))
}
