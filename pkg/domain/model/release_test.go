package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/tagsmith/pkg/domain/model"
	"github.com/m-mizutani/tagsmith/pkg/domain/types"
)

func TestParseReleaseBranch(t *testing.T) {
	tests := []struct {
		name    string
		branch  string
		wantTag string
		wantErr error
	}{
		{
			name:    "valid release branch",
			branch:  "release/2024.03.20240315120000",
			wantTag: "2024.03.20240315120000",
		},
		{
			name:    "valid release branch with single digit month",
			branch:  "release/2024.3.20240301080000",
			wantTag: "2024.3.20240301080000",
		},
		{
			name:    "valid release branch in december",
			branch:  "release/2025.12.20251231235959",
			wantTag: "2025.12.20251231235959",
		},
		{
			name:    "feature branch",
			branch:  "feature/foo",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "missing prefix",
			branch:  "2024.03.20240315120000",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "timestamp too short",
			branch:  "release/2024.03.2024031512000",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "timestamp too long",
			branch:  "release/2024.03.202403151200001",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "three digit month",
			branch:  "release/2024.123.20240315120000",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "two digit year",
			branch:  "release/24.03.20240315120000",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "trailing garbage",
			branch:  "release/2024.03.20240315120000-rc1",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "leading garbage",
			branch:  "prerelease/2024.03.20240315120000",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "non-numeric timestamp",
			branch:  "release/2024.03.2024031512000a",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "empty branch name",
			branch:  "",
			wantErr: types.ErrInvalidBranchFormat,
		},
		{
			name:    "prefix only",
			branch:  "release/",
			wantErr: types.ErrInvalidBranchFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := model.ParseReleaseBranch(model.ReleaseBranchRef(tt.branch))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseReleaseBranch(%q) error = %v, want %v", tt.branch, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReleaseBranch(%q) unexpected error: %v", tt.branch, err)
			}
			if string(tag) != tt.wantTag {
				t.Errorf("ParseReleaseBranch(%q) = %q, want %q", tt.branch, tag, tt.wantTag)
			}
		})
	}
}

func TestParseReleaseBranch_TagIsSuffix(t *testing.T) {
	branch := "release/2024.03.20240315120000"
	tag, err := model.ParseReleaseBranch(model.ReleaseBranchRef(branch))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, want, _ := strings.Cut(branch, "/")
	if string(tag) != want {
		t.Errorf("derived tag = %q, want substring after first separator %q", tag, want)
	}
}

func TestValidateTagName(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		wantErr error
	}{
		{
			name: "valid tag",
			tag:  "2024.03.20240315120000",
		},
		{
			name: "exactly at length limit",
			tag:  strings.Repeat("a", 50),
		},
		{
			name:    "empty tag",
			tag:     "",
			wantErr: types.ErrEmptyTag,
		},
		{
			name:    "one over length limit",
			tag:     strings.Repeat("a", 51),
			wantErr: types.ErrTagTooLong,
		},
		{
			name:    "far over length limit",
			tag:     strings.Repeat("2024.03.20240315120000", 5),
			wantErr: types.ErrTagTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := model.ValidateTagName(model.ReleaseTag(tt.tag))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateTagName(%q) error = %v, want %v", tt.tag, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateTagName(%q) unexpected error: %v", tt.tag, err)
			}
		})
	}
}

func TestReleaseBranchRef_IsReleaseBranch(t *testing.T) {
	tests := []struct {
		branch   string
		expected bool
	}{
		{"release/2024.03.20240315120000", true},
		{"release/anything", true},
		{"feature/foo", false},
		{"main", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			got := model.ReleaseBranchRef(tt.branch).IsReleaseBranch()
			if got != tt.expected {
				t.Errorf("IsReleaseBranch(%q) = %v, want %v", tt.branch, got, tt.expected)
			}
		})
	}
}
