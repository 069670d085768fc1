package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franizus/slack-jira-agent/pkg/logx"
)

func testClient(serverURL string) *Client {
	return &Client{
		baseURL:    serverURL,
		email:      "pm@kushki.com",
		apiToken:   "token",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logx.NewLogger("jira"),
	}
}

func TestSearchAccountIDFirstMatchWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/user/search", r.URL.Path)
		assert.Equal(t, "dev@kushki.com", r.URL.Query().Get("query"))

		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "pm@kushki.com", user)

		fmt.Fprint(w, `[{"accountId":"abc-123"},{"accountId":"def-456"}]`)
	}))
	defer server.Close()

	id, err := testClient(server.URL).SearchAccountID(context.Background(), "dev@kushki.com")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestSearchAccountIDNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchAccountID(context.Background(), "ghost@kushki.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@kushki.com")
}

func TestCreateIssueBuildsFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/user/search":
			fmt.Fprint(w, `[{"accountId":"abc-123"}]`)
		case "/rest/api/3/issue":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"1","key":"PROJ-7"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	issue, err := testClient(server.URL).CreateIssue(context.Background(), &IssueRequest{
		ProjectKey:     "PROJ",
		Summary:        "Exponer comerceCode",
		Description:    "### Historia\nDetalle.",
		AssigneeEmail:  "dev@kushki.com",
		UATDeployDate:  "2026-09-15",
		ProdDeployDate: "2026-09-22",
		Methodology:    []string{"Scrum", "Kanban"},
		ParentIssueKey: "PROJ-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-7", issue.Key)
	assert.Equal(t, server.URL+"/browse/PROJ-7", issue.URL)

	fields := gotBody["fields"].(map[string]any)
	assert.Equal(t, map[string]any{"key": "PROJ"}, fields["project"])
	assert.Equal(t, map[string]any{"name": "Task"}, fields["issuetype"], "issue type defaults to Task")
	assert.Equal(t, map[string]any{"name": "Medium"}, fields["priority"], "priority defaults to Medium")
	assert.Equal(t, map[string]any{"id": "abc-123"}, fields["assignee"])
	assert.Equal(t, "2026-09-15", fields[fieldUATDeployDate])
	assert.Equal(t, "2026-09-22", fields[fieldProdDeployDate])
	assert.Equal(t, map[string]any{"key": "PROJ-1"}, fields["parent"])

	methodology := fields[fieldMethodology].([]any)
	require.Len(t, methodology, 2)
	assert.Equal(t, map[string]any{"value": "Scrum"}, methodology[0])

	description := fields["description"].(map[string]any)
	assert.Equal(t, "doc", description["type"])
}

func TestCreateIssueOmitsEmptyOptionalFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/user/search":
			fmt.Fprint(w, `[{"accountId":"abc-123"}]`)
		case "/rest/api/3/issue":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			fmt.Fprint(w, `{"key":"PROJ-8"}`)
		}
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateIssue(context.Background(), &IssueRequest{
		ProjectKey:    "PROJ",
		Summary:       "s",
		Description:   "d",
		AssigneeEmail: "dev@kushki.com",
	})
	require.NoError(t, err)

	fields := gotBody["fields"].(map[string]any)
	assert.NotContains(t, fields, fieldUATDeployDate)
	assert.NotContains(t, fields, fieldProdDeployDate)
	assert.NotContains(t, fields, fieldMethodology)
	assert.NotContains(t, fields, "parent")
}

func TestCreateIssueJoinsAPIErrorMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/user/search":
			fmt.Fprint(w, `[{"accountId":"abc-123"}]`)
		case "/rest/api/3/issue":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"errorMessages":["project is required","summary too long"]}`)
		}
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateIssue(context.Background(), &IssueRequest{
		ProjectKey:    "PROJ",
		Summary:       "s",
		Description:   "d",
		AssigneeEmail: "dev@kushki.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project is required, summary too long")
}

func TestCreateIssueAssigneeLookupFailureAborts(t *testing.T) {
	issueCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/user/search":
			fmt.Fprint(w, `[]`)
		case "/rest/api/3/issue":
			issueCalled = true
		}
	}))
	defer server.Close()

	_, err := testClient(server.URL).CreateIssue(context.Background(), &IssueRequest{
		ProjectKey:    "PROJ",
		Summary:       "s",
		Description:   "d",
		AssigneeEmail: "ghost@kushki.com",
	})
	require.Error(t, err)
	assert.False(t, issueCalled, "issue creation must not run without an assignee")
}
