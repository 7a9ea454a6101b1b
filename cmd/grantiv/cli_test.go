package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantiv/internal/apiclient"
	"grantiv/internal/models"
	"grantiv/internal/pipeline"
	"grantiv/internal/progress"
	"grantiv/internal/tasks"
)

func TestReadDecision(t *testing.T) {
	tests := []struct {
		input string
		want  progress.Decision
	}{
		{"a\n", progress.DecisionAccept},
		{"a", progress.DecisionAccept},
		{"Reject\n", progress.DecisionReject},
		{"  no  ", progress.DecisionReject},
	}
	for _, tt := range tests {
		got, err := readDecision(strings.NewReader(tt.input))
		require.NoError(t, err, "%q", tt.input)
		assert.Equal(t, tt.want, got, "%q", tt.input)
	}

	_, err := readDecision(strings.NewReader(""))
	assert.Error(t, err)

	_, err = readDecision(strings.NewReader("maybe\n"))
	assert.ErrorIs(t, err, progress.ErrInvalidDecision)
}

func TestOrderByPipeline(t *testing.T) {
	app := func(id string, s pipeline.Status) apiclient.Application {
		a := apiclient.Application{}
		a.ID = id
		a.Status = s
		return a
	}
	apps := []apiclient.Application{
		app("a", pipeline.StatusRejected),
		app("b", pipeline.Status("LOST")),
		app("c", pipeline.StatusDrafting),
		app("d", pipeline.StatusInReview),
		app("e", pipeline.StatusDrafting),
	}

	orderByPipeline(apps)

	var ids []string
	for _, a := range apps {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"c", "e", "d", "a", "b"}, ids)
}

func TestGrantOrder(t *testing.T) {
	groups := tasks.GroupByGrant([]models.Task{
		{ID: "1", GrantID: "g2"},
		{ID: "2"},
		{ID: "3", GrantID: "g1"},
	})
	assert.Equal(t, []string{"g1", "g2", ""}, grantOrder(groups))

	titles := map[string]string{"g1": "Arts Fund"}
	assert.Equal(t, "Arts Fund", groupTitle("g1", titles))
	assert.Equal(t, "g2", groupTitle("g2", titles))
	assert.Equal(t, "Personal", groupTitle("", titles))
}
