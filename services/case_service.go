package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kanzlei_app_go/models"

	"gorm.io/gorm"
)

// NormalizePartyName prepares a party name for conflict comparison:
// whitespace-trimmed and case-folded, nothing fuzzier than that.
func NormalizePartyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CheckConflict rejects a client/opponent pairing that would put the office on
// both sides of a dispute. A conflict exists when the proposed client's name
// matches an opponent of any active (open or in-progress) case, or the
// proposed opponent's name matches a client of one - cross-role collisions
// only; two cases sharing the same client are fine. excludeCaseID removes the
// case being edited from the comparison set so a case never conflicts with
// itself. Blank names never conflict.
func CheckConflict(database *gorm.DB, clientName, opponentName, excludeCaseID string) error {
	client := NormalizePartyName(clientName)
	opponent := NormalizePartyName(opponentName)
	if client == "" && opponent == "" {
		return nil
	}

	query := database.Preload("Client").Preload("Opponent").
		Where("status IN ?", []string{models.CaseStatusOpen, models.CaseStatusInProgress})
	if excludeCaseID != "" {
		query = query.Where("id <> ?", excludeCaseID)
	}

	var cases []models.Case
	if err := query.Find(&cases).Error; err != nil {
		return fmt.Errorf("failed to load active cases for conflict check: %w", err)
	}

	for i := range cases {
		existingClient := cases[i].Client.DisplayName()
		existingOpponent := cases[i].Opponent.DisplayName()

		if client != "" && client == NormalizePartyName(existingOpponent) {
			return &ConflictError{
				FileNumber: cases[i].FileNumber,
				PartyName:  existingOpponent,
				Role:       "opponent",
			}
		}
		if opponent != "" && opponent == NormalizePartyName(existingClient) {
			return &ConflictError{
				FileNumber: cases[i].FileNumber,
				PartyName:  existingClient,
				Role:       "client",
			}
		}
	}
	return nil
}

// GenerateFileNumber generates the next file number in the office format
// NNNN.YY.<suffix>, e.g. 0042.26.awr. The sequence restarts each year.
// Numbers of soft-deleted cases are not reissued.
func GenerateFileNumber(database *gorm.DB, suffix string) (string, error) {
	yy := time.Now().Format("06")

	var numbers []string
	pattern := fmt.Sprintf("%%.%s.%s", yy, suffix)
	if err := database.Unscoped().Model(&models.Case{}).
		Where("file_number LIKE ?", pattern).
		Pluck("file_number", &numbers).Error; err != nil {
		return "", fmt.Errorf("failed to query file numbers: %w", err)
	}

	maxSeq := 0
	for _, n := range numbers {
		parts := strings.Split(n, ".")
		if len(parts) < 3 || parts[1] != yy {
			continue
		}
		if seq, err := strconv.Atoi(parts[0]); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%04d.%s.%s", maxSeq+1, yy, suffix), nil
}

// EnsureUniqueFileNumber generates a file number and verifies no case holds it
// yet, retrying on collision (concurrent creates race on the sequence scan;
// the unique index is the final arbiter)
func EnsureUniqueFileNumber(database *gorm.DB, suffix string) (string, error) {
	const maxRetries = 10

	for i := 0; i < maxRetries; i++ {
		fileNumber, err := GenerateFileNumber(database, suffix)
		if err != nil {
			return "", err
		}

		var count int64
		if err := database.Unscoped().Model(&models.Case{}).Where("file_number = ?", fileNumber).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check file number uniqueness: %w", err)
		}

		if count == 0 {
			return fileNumber, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique file number after %d retries", maxRetries)
}

// CaseInput carries the fields accepted when creating a case
type CaseInput struct {
	FileNumber    string
	ClientID      string
	OpponentID    string
	ModusOperandi string
	ExtraInfo     models.JSONMap
}

// CreateCase validates the party references, runs the conflict check and
// creates the case with status OPEN. A blank file number is generated.
func CreateCase(database *gorm.DB, suffix string, in CaseInput) (*models.Case, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.ClientID) == "" {
		fields["client_id"] = "is required"
	}
	if strings.TrimSpace(in.OpponentID) == "" {
		fields["opponent_id"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var client models.Client
	if err := database.First(&client, "id = ?", in.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("client_id", "unknown client")
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	var opponent models.Opponent
	if err := database.First(&opponent, "id = ?", in.OpponentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("opponent_id", "unknown opponent")
		}
		return nil, fmt.Errorf("failed to load opponent: %w", err)
	}

	if err := CheckConflict(database, client.DisplayName(), opponent.DisplayName(), ""); err != nil {
		return nil, err
	}

	fileNumber := strings.TrimSpace(in.FileNumber)
	if fileNumber == "" {
		generated, err := EnsureUniqueFileNumber(database, suffix)
		if err != nil {
			return nil, err
		}
		fileNumber = generated
	}

	kase := &models.Case{
		FileNumber:    fileNumber,
		Status:        models.CaseStatusOpen,
		ClientID:      client.ID,
		OpponentID:    opponent.ID,
		ModusOperandi: in.ModusOperandi,
		ExtraInfo:     in.ExtraInfo,
	}
	if kase.ExtraInfo == nil {
		kase.ExtraInfo = models.JSONMap{}
	}

	if err := database.Create(kase).Error; err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	kase.Client = client
	kase.Opponent = opponent
	return kase, nil
}

// CaseUpdate carries the optional fields of a case edit; nil means unchanged
type CaseUpdate struct {
	ClientID      *string
	OpponentID    *string
	ModusOperandi *string
	Status        *string
}

// UpdateCase applies an edit to a case. Closed cases reject all edits.
// The conflict check re-runs only when party identity actually changes, so
// touching the modus operandi of a case never trips over its own pairing.
// Closing via a plain status edit is not allowed; that is CloseCase's job.
func UpdateCase(database *gorm.DB, id string, in CaseUpdate) (*models.Case, error) {
	var kase models.Case
	if err := database.Preload("Client").Preload("Opponent").First(&kase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}

	if kase.IsClosed() {
		return nil, ErrCaseClosed
	}

	if in.Status != nil {
		if !models.IsValidCaseStatus(*in.Status) {
			return nil, NewValidationError("status", "invalid status")
		}
		if *in.Status == models.CaseStatusClosed {
			return nil, NewValidationError("status", "use the close operation to close a case")
		}
		kase.Status = *in.Status
	}

	if in.ModusOperandi != nil {
		kase.ModusOperandi = *in.ModusOperandi
	}

	partyChanged := false
	if in.ClientID != nil && *in.ClientID != kase.ClientID {
		var client models.Client
		if err := database.First(&client, "id = ?", *in.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewValidationError("client_id", "unknown client")
			}
			return nil, fmt.Errorf("failed to load client: %w", err)
		}
		kase.ClientID = client.ID
		kase.Client = client
		partyChanged = true
	}
	if in.OpponentID != nil && *in.OpponentID != kase.OpponentID {
		var opponent models.Opponent
		if err := database.First(&opponent, "id = ?", *in.OpponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NewValidationError("opponent_id", "unknown opponent")
			}
			return nil, fmt.Errorf("failed to load opponent: %w", err)
		}
		kase.OpponentID = opponent.ID
		kase.Opponent = opponent
		partyChanged = true
	}

	if partyChanged {
		if err := CheckConflict(database, kase.Client.DisplayName(), kase.Opponent.DisplayName(), kase.ID); err != nil {
			return nil, err
		}
	}

	if err := database.Save(&kase).Error; err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}

	return &kase, nil
}

// CloseCase performs the terminal lifecycle transition: it freezes the current
// client and opponent master data into the case's snapshot columns and sets
// the status to CLOSED, all inside one transaction. The status flip is a
// conditional update guarded on "not yet closed", so of two concurrent close
// attempts exactly one wins; the loser - like any close of an already-closed
// case - gets ErrCaseAlreadyClosed. Any failure before commit leaves the case
// untouched.
func CloseCase(database *gorm.DB, id string) (*models.Case, error) {
	var kase models.Case

	err := database.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&kase, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load case: %w", err)
		}

		if kase.IsClosed() {
			return ErrCaseAlreadyClosed
		}

		// Load both parties explicitly: a missing record must abort the
		// close, not freeze an empty snapshot.
		var client models.Client
		if err := tx.First(&client, "id = ?", kase.ClientID).Error; err != nil {
			return fmt.Errorf("failed to load client for snapshot: %w", err)
		}
		var opponent models.Opponent
		if err := tx.First(&opponent, "id = ?", kase.OpponentID).Error; err != nil {
			return fmt.Errorf("failed to load opponent for snapshot: %w", err)
		}

		clientSnap := client.Snapshot()
		opponentSnap := opponent.Snapshot()
		now := time.Now()

		result := tx.Model(&models.Case{}).
			Where("id = ? AND status <> ?", id, models.CaseStatusClosed).
			Updates(map[string]interface{}{
				"status":            models.CaseStatusClosed,
				"closed_at":         now,
				"client_snapshot":   clientSnap,
				"opponent_snapshot": opponentSnap,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to close case: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Another request closed it between our read and this write
			return ErrCaseAlreadyClosed
		}

		kase.Status = models.CaseStatusClosed
		kase.ClosedAt = &now
		kase.ClientSnapshot = &clientSnap
		kase.OpponentSnapshot = &opponentSnap
		kase.Client = client
		kase.Opponent = opponent
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &kase, nil
}

// WriteExtraInfo replaces the case's flexible extra-info blob transactionally.
// Closed cases are immutable and reject the write.
func WriteExtraInfo(database *gorm.DB, id string, data models.JSONMap) (*models.Case, error) {
	var kase models.Case

	err := database.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&kase, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load case: %w", err)
		}

		if kase.IsClosed() {
			return ErrCaseClosed
		}

		if err := tx.Model(&kase).Update("extra_info", data).Error; err != nil {
			return fmt.Errorf("failed to write extra info: %w", err)
		}

		kase.ExtraInfo = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &kase, nil
}

// GetCase loads a case with its parties for display
func GetCase(database *gorm.DB, id string) (*models.Case, error) {
	var kase models.Case
	if err := database.Preload("Client").Preload("Opponent").Preload("ThirdParties").
		First(&kase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return &kase, nil
}

// AddThirdParty attaches an additional involved party to a case, enforcing
// the per-case cap inside a transaction
func AddThirdParty(database *gorm.DB, caseID string, tp *models.ThirdParty) error {
	return database.Transaction(func(tx *gorm.DB) error {
		var kase models.Case
		if err := tx.First(&kase, "id = ?", caseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load case: %w", err)
		}

		var count int64
		if err := tx.Model(&models.ThirdParty{}).Where("case_id = ?", caseID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count third parties: %w", err)
		}
		if count >= models.MaxThirdPartiesPerCase {
			return ErrThirdPartyLimit
		}

		tp.CaseID = caseID
		if err := tx.Create(tp).Error; err != nil {
			return fmt.Errorf("failed to create third party: %w", err)
		}
		return nil
	})
}
