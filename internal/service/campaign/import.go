package campaign

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/streetbite/vendorhub/internal/domain"
	"github.com/streetbite/vendorhub/internal/pkg/apperr"
	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

const (
	// maxRejectedSamples bounds the rejected lines kept in an import report.
	maxRejectedSamples = 100
	// maxRejectedValue bounds how much of a rejected line is reported or logged.
	maxRejectedValue = 64
)

// ImportResult summarizes a recipient import.
type ImportResult struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Empty      int `json:"empty"`
	Lines      int `json:"lines"`
}

// RejectedLine is a sample of input that failed validation.
type RejectedLine struct {
	Line  int    `json:"line"`
	Value string `json:"value"`
}

// ImportReport is what the audit sink archives for each import.
type ImportReport struct {
	CampaignID string         `json:"campaignId"`
	Result     ImportResult   `json:"result"`
	Rejected   []RejectedLine `json:"rejected,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Populate streams phone numbers (one per line) from r into the campaign's
// recipients. Lines are trimmed; blanks are skipped, numbers that are not
// 10-15 digits are rejected and repeats within this upload are dropped.
// Each line is judged on its own: a line longer than the configured limit is
// rejected like any other malformed value and the import carries on.
// Recipients are written in batches as the input is read, so the upload is
// never held in memory. The campaign moves DRAFT -> POPULATING -> READY and
// its total becomes the number of unique numbers written.
func (s *Service) Populate(ctx context.Context, id string, r io.Reader) (*ImportResult, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tr := domain.ValidateTransition(c.Status, domain.ActionPopulate)
	if !tr.Valid {
		return nil, apperr.Validation("%s", tr.Error)
	}

	started := s.now().UTC()
	if err := s.updateStatus(ctx, id, c.Status, StatusUpdate{To: domain.CampaignPopulating, At: started}); err != nil {
		return nil, err
	}
	s.log.Info("recipient import started", "campaign_id", id)

	report := ImportReport{CampaignID: id, StartedAt: started}
	if err := s.importLines(ctx, id, r, &report); err != nil {
		if !apperr.Is(err, apperr.KindValidation) {
			s.log.Error("recipient import failed", "campaign_id", id, "line", report.Result.Lines, "error", err)
		}
		s.revertToDraft(id)
		return nil, err
	}

	total := report.Result.Imported
	if err := s.updateStatus(ctx, id, domain.CampaignPopulating, StatusUpdate{
		To: domain.CampaignReady, At: s.now().UTC(), TotalRecipients: &total,
	}); err != nil {
		return nil, err
	}

	report.FinishedAt = s.now().UTC()
	res := report.Result
	s.log.Info("recipient import finished",
		"campaign_id", id, "imported", res.Imported, "duplicates", res.Duplicates,
		"invalid", res.Invalid, "empty", res.Empty)

	if s.audit != nil {
		if err := s.audit.SaveImportReport(ctx, report); err != nil {
			s.log.Warn("failed to archive import report", "campaign_id", id, "error", err)
		}
	}
	return &res, nil
}

func (s *Service) importLines(ctx context.Context, id string, r io.Reader, report *ImportReport) error {
	br := bufio.NewReaderSize(r, s.maxLineBytes+1)

	seen := make(map[string]struct{})
	batch := make([]domain.Recipient, 0, s.batchSize)
	res := &report.Result

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.recipients.PutBatch(ctx, batch); err != nil {
			return apperr.Internal("write recipients", err)
		}
		res.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	reject := func(value string) {
		res.Invalid++
		if len(value) > maxRejectedValue {
			value = value[:maxRejectedValue]
		}
		s.log.Warn("rejected recipient line",
			"campaign_id", id, "line", res.Lines, "value", logger.RedactPhone(value))
		if len(report.Rejected) < maxRejectedSamples {
			report.Rejected = append(report.Rejected, RejectedLine{Line: res.Lines, Value: value})
		}
	}

	for {
		raw, overlong, readErr := readLine(br)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return apperr.Validation("reading upload: %v", readErr)
		}
		if len(raw) == 0 && !overlong {
			break
		}

		res.Lines++
		line := string(raw)
		if res.Lines == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		phone := strings.TrimSpace(line)
		switch {
		case overlong:
			reject(phone)
		case phone == "":
			res.Empty++
		case !domain.ValidPhone(phone):
			reject(phone)
		default:
			if _, dup := seen[phone]; dup {
				res.Duplicates++
				break
			}
			seen[phone] = struct{}{}

			batch = append(batch, domain.Recipient{
				CampaignID: id,
				Phone:      phone,
				Status:     domain.RecipientPending,
				CreatedAt:  s.now().UTC(),
			})
			if len(batch) == s.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
	}
	return flush()
}

// readLine returns the next line including its newline. A line that does
// not fit the reader's buffer is consumed to its end and reported as
// overlong; only its first maxRejectedValue bytes are returned.
func readLine(br *bufio.Reader) (line []byte, overlong bool, err error) {
	line, err = br.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return line, false, err
	}
	head := make([]byte, min(len(line), maxRejectedValue))
	copy(head, line)
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = br.ReadSlice('\n')
	}
	return head, true, err
}

// revertToDraft puts a failed import back to DRAFT so it can be retried.
// Rows already written are overwritten by the retry.
func (s *Service) revertToDraft(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.repo.UpdateStatus(ctx, id, domain.CampaignPopulating, StatusUpdate{To: domain.CampaignDraft, At: s.now().UTC()})
	if err != nil {
		s.log.Error("failed to revert campaign after import error", "campaign_id", id, "error", err)
	}
}
