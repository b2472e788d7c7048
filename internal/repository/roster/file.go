package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/attendance-notifier/internal/config"
	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
)

// FileRepository keeps the roster in a YAML document on disk.
// Record rows are 1-based positions in the document.
type FileRepository struct {
	// path is the filesystem location of the roster document.
	path string
	// mu serialises read-modify-write cycles of this process.
	mu sync.Mutex
}

// fileDocument is the on-disk layout of the roster.
type fileDocument struct {
	Records []fileRecord `yaml:"records"`
}

// fileRecord keeps status as a raw string so hand edits survive parsing.
type fileRecord struct {
	Name        string `yaml:"name"`
	Phone       string `yaml:"phone"`
	Status      string `yaml:"status"`
	PaymentDate string `yaml:"payment_date,omitempty"`
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Init creates the roster with one sample row when the file does not exist yet.
func (r *FileRepository) Init(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat roster file: %w", err)
	}

	sample := &fileDocument{
		Records: []fileRecord{
			{Name: "홍길동", Phone: "01012345678", Status: domain.CheckedOut.String()},
		},
	}

	if err := r.save(sample); err != nil {
		return false, err
	}

	return true, nil
}

// Fetch reads every record, stopping at the first row without a name.
func (r *FileRepository) Fetch(_ context.Context) ([]domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(doc.Records))

	for i, rec := range doc.Records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			break
		}

		row := i + 1
		records = append(records, domain.Record{
			ID:          domain.RecordID(row, name),
			Row:         row,
			Name:        name,
			Phone:       strings.TrimSpace(rec.Phone),
			Status:      domain.ParseStatus(rec.Status),
			PaymentDate: strings.TrimSpace(rec.PaymentDate),
		})
	}

	return records, nil
}

// SetStatus writes the status of one record.
func (r *FileRepository) SetStatus(_ context.Context, id string, status domain.Status) error {
	return r.update("set status", id, func(rec *fileRecord) {
		rec.Status = status.String()
	})
}

// SetPhone replaces the phone number of a record.
func (r *FileRepository) SetPhone(_ context.Context, id, phone string) error {
	return r.update("set phone", id, func(rec *fileRecord) {
		rec.Phone = strings.TrimSpace(phone)
	})
}

// SetPaymentDate sets or clears the payment date of a record.
func (r *FileRepository) SetPaymentDate(_ context.Context, id, paymentDate string) error {
	return r.update("set payment date", id, func(rec *fileRecord) {
		rec.PaymentDate = strings.TrimSpace(paymentDate)
	})
}

// Add appends a record after the last named row.
func (r *FileRepository) Add(_ context.Context, name, phone, paymentDate string) (domain.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Record{}, errNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadOrEmpty()
	if err != nil {
		return domain.Record{}, writeError("add", err)
	}

	// Rows after the first unnamed one are invisible to Fetch; keep them out
	// of the way by inserting right after the last visible row.
	last := 0
	for last < len(doc.Records) && strings.TrimSpace(doc.Records[last].Name) != "" {
		last++
	}

	rec := fileRecord{
		Name:        name,
		Phone:       strings.TrimSpace(phone),
		Status:      domain.CheckedOut.String(),
		PaymentDate: strings.TrimSpace(paymentDate),
	}

	doc.Records = append(doc.Records[:last], append([]fileRecord{rec}, doc.Records[last:]...)...)

	if err := r.save(doc); err != nil {
		return domain.Record{}, err
	}

	row := last + 1

	return domain.Record{
		ID:          domain.RecordID(row, name),
		Row:         row,
		Name:        rec.Name,
		Phone:       rec.Phone,
		Status:      domain.CheckedOut,
		PaymentDate: rec.PaymentDate,
	}, nil
}

// Delete removes a record; later rows shift up and get new identities.
func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return writeError("delete", err)
	}

	idx, err := findRow(doc, id)
	if err != nil {
		return err
	}

	doc.Records = append(doc.Records[:idx], doc.Records[idx+1:]...)

	return r.save(doc)
}

// Close is a no-op for the file store.
func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) update(op, id string, mutate func(*fileRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return writeError(op, err)
	}

	idx, err := findRow(doc, id)
	if err != nil {
		return err
	}

	mutate(&doc.Records[idx])

	return r.save(doc)
}

func findRow(doc *fileDocument, id string) (int, error) {
	for i, rec := range doc.Records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			break
		}

		if domain.RecordID(i+1, name) == id {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%q: %w", id, ErrNotFound)
}

func (r *FileRepository) load() (*fileDocument, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode roster file: %w", err)
	}

	return &doc, nil
}

func (r *FileRepository) loadOrEmpty() (*fileDocument, error) {
	doc, err := r.load()
	if errors.Is(err, os.ErrNotExist) {
		return new(fileDocument), nil
	}

	return doc, err
}

// save writes through a temporary file so readers never see a torn document.
func (r *FileRepository) save(doc *fileDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return writeError("encode roster", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return writeError("write roster file", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return writeError("replace roster file", err)
	}

	return nil
}
