package dto

// GeneratedForecast is the structured object the model is asked to produce.
type GeneratedForecast struct {
	Skip              bool     `json:"skip,omitempty"`
	ClaimText         string   `json:"claim_text"`
	DetailsText       string   `json:"details_text"`
	OutcomeType       string   `json:"outcome_type"`
	Options           []string `json:"options,omitempty"`
	ResolveByDatetime string   `json:"resolve_by_datetime"`
	ResolutionRules   string   `json:"resolution_rules"`
	Tags              []string `json:"tags"`
}

// VoteDecision is the structured object returned by a vote prompt.
type VoteDecision struct {
	ShouldVote   bool   `json:"should_vote"`
	BinaryChoice *bool  `json:"binary_choice,omitempty"`
	OptionIndex  *int   `json:"option_index,omitempty"`
	Reasoning    string `json:"reasoning"`
}

// CommitmentRequest is the stake placed by CreateCommitment.
type CommitmentRequest struct {
	Amount       int
	BinaryChoice *bool
	OptionIndex  *int
}

// CommitmentResult reports a business outcome instead of failing on rejection.
type CommitmentResult struct {
	OK           bool
	CommitmentID string
	Error        string
}
