package models

import (
	"strings"
	"time"
)

// Credential status values, in classification priority order.
const (
	CredentialUnknownID   CredentialStatus = "invalid: unknown id"
	CredentialWrongSecret CredentialStatus = "invalid: wrong secret"
	CredentialRevoked     CredentialStatus = "invalid: credential revoked"
	CredentialValid       CredentialStatus = "valid"
)

// Content status values
const (
	ContentBlank    ContentStatus = "blank"
	ContentNonBlank ContentStatus = "non-blank"
)

// Final status values. Credential failures are rendered with
// CredentialFailure so the reason travels with the status.
const (
	FinalCountable  FinalStatus = "valid-countable"
	FinalBlank      FinalStatus = "invalid-content:blank"
	FinalDuplicate  FinalStatus = "invalid-content:duplicate"
	finalCredPrefix             = "invalid-credential:"
)

// PublicIDLength is the width of a public id once left-zero-padded.
const PublicIDLength = 6

type CredentialStatus string

// Valid reports whether the credential was accepted.
func (s CredentialStatus) Valid() bool { return s == CredentialValid }

// Reason strips the "invalid: " prefix, e.g. "unknown id".
func (s CredentialStatus) Reason() string {
	return strings.TrimPrefix(string(s), "invalid: ")
}

type ContentStatus string

type FinalStatus string

// CredentialFailure builds the final status for a rejected credential.
func CredentialFailure(s CredentialStatus) FinalStatus {
	return FinalStatus(finalCredPrefix + s.Reason())
}

// Countable reports whether the vote enters the tally.
func (s FinalStatus) Countable() bool { return s == FinalCountable }

// Credential is the triple handed to one voter. PrivateKey is only held in
// memory between generation and delivery.
type Credential struct {
	PublicID   string `json:"public_id"`
	PrivateKey string `json:"-"`
	PublicKey  string `json:"public_key"`
}

// CredentialRecord is the persisted registry row. Records are never deleted;
// revocation flips IsActive.
type CredentialRecord struct {
	PublicID      string     `json:"public_id"`
	PublicKey     string     `json:"public_key"`
	IsActive      bool       `json:"is_active"`
	IssuedAt      time.Time  `json:"issued_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// RegistryEntry is one row of a credential snapshot.
type RegistryEntry struct {
	PublicKey string
	IsActive  bool
}

// Snapshot is a point-in-time copy of the credential registry keyed by
// padded public id. Validation runs read exactly one.
type Snapshot map[string]RegistryEntry

// ActiveCount counts credentials that can still vote.
func (s Snapshot) ActiveCount() int {
	n := 0
	for _, e := range s {
		if e.IsActive {
			n++
		}
	}
	return n
}

// IssuanceRecord links a roster identity to the public id it currently
// holds. It lives in the operator's store and never meets a ballot.
type IssuanceRecord struct {
	Email      string    `json:"email"`
	PublicID   string    `json:"public_id"`
	Generation int       `json:"generation"`
	IssuedAt   time.Time `json:"issued_at"`
	Delivered  bool      `json:"delivered"`
	Production bool      `json:"production"`
}

// Voter is one roster entry. Line is the 1-based source line, 0 if unknown.
type Voter struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Line  int    `json:"-"`
}

// VoteSubmission is one row from the submission funnel. Once a
// recompute has run, SubmittedSecret holds the recomputed public key and
// SecretDigested is set.
type VoteSubmission struct {
	ID              string    `json:"id"`
	Seq             int64     `json:"seq"`
	PublicID        string    `json:"public_id"`
	SubmittedSecret string    `json:"-"`
	SecretDigested  bool      `json:"-"`
	Timestamp       time.Time `json:"timestamp"`
	Race1Rankings   []string  `json:"race_1_rankings"`
	Race2Selections []string  `json:"race_2_selections"`
}

// ValidatedVote is the ledger row derived from exactly one submission.
type ValidatedVote struct {
	SubmissionID        string           `json:"submission_id"`
	Timestamp           time.Time        `json:"timestamp"`
	PublicID            string           `json:"public_id"`
	RecomputedPublicKey string           `json:"recomputed_public_key"`
	CredentialStatus    CredentialStatus `json:"credential_status"`
	ContentStatus       ContentStatus    `json:"content_status"`
	SequenceNumber      int              `json:"sequence_number"`
	FinalStatus         FinalStatus      `json:"final_status"`
	Race1Rankings       []string         `json:"race_1_rankings"`
	Race2Selections     []string         `json:"race_2_selections"`
}

// Tally types

type ScoreRow struct {
	Candidate  string `json:"candidate"`
	Points     int    `json:"points"`
	RankCounts []int  `json:"rank_counts,omitempty"`
	Position   int    `json:"position"` // 1-indexed
}

type Scoreboard struct {
	Race        string     `json:"race"`
	Method      string     `json:"method"`
	Rows        []ScoreRow `json:"rows"`
	Placeholder bool       `json:"placeholder"`
}

type Summary struct {
	ActiveCredentials int     `json:"active_credentials"`
	CountableVotes    int     `json:"countable_votes"`
	ConfiguredMaxRank int     `json:"configured_max_rank"`
	EffectiveMaxRank  int     `json:"effective_max_rank"`
	CutoffFraction    float64 `json:"cutoff_fraction"`
	Cutoff            float64 `json:"cutoff"`
}

type TallyResult struct {
	RunID      string     `json:"run_id"`
	ComputedAt time.Time  `json:"computed_at"`
	Race1      Scoreboard `json:"race_1"`
	Race2      Scoreboard `json:"race_2"`
	Summary    Summary    `json:"summary"`
	InputsHash string     `json:"inputs_hash"`
}

// Tally methods
const (
	MethodBorda     = "borda"
	MethodPlurality = "plurality"
)

// Request/response types

// SubmitVoteRequest carries no timestamp: arrival time is the server's
// clock, so a client cannot reorder its own ballots.
type SubmitVoteRequest struct {
	PublicID        string   `json:"public_id"`
	Secret          string   `json:"secret"`
	Race1Rankings   []string `json:"race_1_rankings"`
	Race2Text       string   `json:"race_2"`
	Race2Selections []string `json:"race_2_selections"`
}

type SubmitVoteResponse struct {
	SubmissionID string `json:"submission_id"`
	Message      string `json:"message"`
}

type RecomputeResponse struct {
	Message string       `json:"message"`
	Result  *TallyResult `json:"result,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PadPublicID trims the id and restores leading zeros a spreadsheet may
// have stripped. Non-numeric ids are returned trimmed and unchanged.
func PadPublicID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) >= PublicIDLength {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	return strings.Repeat("0", PublicIDLength-len(id)) + id
}
