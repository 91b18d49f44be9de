package domain

import "strings"

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence levels; unset counts as high.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}

type PlanSource string

const (
	SourceDeterministic  PlanSource = "deterministic"
	SourceFollowup       PlanSource = "followup"
	SourceActiveTask     PlanSource = "active_task"
	SourceGuardianRepair PlanSource = "guardian_repair"
	SourceProposer       PlanSource = "verifier_proposal"
)

const (
	MemoryReasonPeriod  = "period_from_memory"
	MemoryReasonFilters = "followup_filters_from_memory"
)

type GuardianVerdict string

const (
	VerdictApprove GuardianVerdict = "approve"
	VerdictRepair  GuardianVerdict = "repair"
	VerdictClarify GuardianVerdict = "clarify"
)

type GuardianMeta struct {
	Verdict  GuardianVerdict
	Reason   string
	Fallback bool
}

// DebugMeta is only filled when the caller asked for diagnostics.
type DebugMeta struct {
	MemoryInjected  map[string]any
	FollowupUsed    bool
	QueryMemoryUsed map[string]any
}

// Meta is the diagnostic and provenance side-record attached to a plan.
type Meta struct {
	Confidence         Confidence
	ConfidenceReasons  []string
	Source             PlanSource
	FollowupFromMemory bool
	FollowupReason     string
	MemoryReason       string
	MemoryInjected     []string
	Guardian           *GuardianMeta
	// PendingClarification asks the caller to persist a clarification task.
	PendingClarification *ActiveTask
	UIAction             string
	// BankAccountHint is a bank name trailing a search term, resolved to an account id before execution.
	BankAccountHint  string
	MerchantFallback string
	Debug            *DebugMeta
}

func (m Meta) Clone() Meta {
	cloned := m
	cloned.ConfidenceReasons = append([]string(nil), m.ConfidenceReasons...)
	cloned.MemoryInjected = append([]string(nil), m.MemoryInjected...)
	if m.Guardian != nil {
		guardian := *m.Guardian
		cloned.Guardian = &guardian
	}
	if m.PendingClarification != nil {
		task := m.PendingClarification.Clone()
		cloned.PendingClarification = &task
	}
	if m.Debug != nil {
		cloned.Debug = &DebugMeta{
			MemoryInjected:  CloneMap(m.Debug.MemoryInjected),
			FollowupUsed:    m.Debug.FollowupUsed,
			QueryMemoryUsed: CloneMap(m.Debug.QueryMemoryUsed),
		}
	}
	return cloned
}

// PeriodFromMemory reports whether the plan's period was injected from memory.
func (m Meta) PeriodFromMemory() bool {
	if strings.Contains(m.MemoryReason, MemoryReasonPeriod) {
		return true
	}
	for _, key := range m.MemoryInjected {
		if IsPeriodKey(key) {
			return true
		}
	}
	return false
}

// FiltersFromMemory reports whether a non-period filter came from memory.
func (m Meta) FiltersFromMemory() bool {
	if m.FollowupFromMemory || strings.Contains(m.MemoryReason, MemoryReasonFilters) {
		return true
	}
	for _, key := range m.MemoryInjected {
		if !IsPeriodKey(key) {
			return true
		}
	}
	return false
}

// AppendMemoryReason joins reasons the way they are persisted: comma separated, no duplicates.
func AppendMemoryReason(existing string, reasons ...string) string {
	parts := make([]string, 0, len(reasons)+1)
	if existing != "" {
		parts = append(parts, strings.Split(existing, ",")...)
	}
	parts = append(parts, reasons...)
	return strings.Join(dedupe(parts), ",")
}

func dedupe(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

// DedupeReasons keeps the first occurrence of each reason in order.
func DedupeReasons(reasons []string) []string {
	return dedupe(reasons)
}
