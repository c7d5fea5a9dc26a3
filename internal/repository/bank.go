package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

const (
	catalogPath       = "bank/bank.json"
	templateIndexPath = "exam/templates.json"
	templateDir       = "exam"

	// UnknownBankName is shown for banks missing from the catalog and the default names.
	UnknownBankName = "Unknown bank"
)

var (
	ErrEmptyBank       = errors.New("bank has no questions")
	ErrInvalidTemplate = errors.New("invalid exam template")
)

// defaultBankNames is used when the catalog cannot be fetched or lacks a bank.
var defaultBankNames = map[string]string{
	"general":                   "General",
	"aws_mls_c01_example":       "AWS-MLS(C01) Example",
	"aws_mls_c01_all":           "AWS-MLS(C01) ALL",
	"aws_mls_c01_all_doubao":    "AWS-MLS(C01) DouBao",
	"aws_mls_c01_all_deepseek":  "AWS-MLS(C01) DeepSeek",
	"aws_mls_c01_single":        "AWS-MLS(C01) Single choice",
	"aws_mls_c01_multi":         "AWS-MLS(C01) Multiple choice",
	"acp_ai_pro_single":         "ACP AI Pro (single choice)",
	"acp_ai_pro_single_example": "ACP AI Pro (single choice) Example",
	"acp_ai_pro_multi":          "ACP AI Pro (multiple choice)",
	"acp_ai_pro_numbers":        "ACP AI Pro (numbers)",
	"acp_ai_pro_number":         "ACP AI Pro (numbers)",
	"acp_ai_pro_errors":         "ACP AI Pro (mistakes)",
	"acp_ai_pro_error":          "ACP AI Pro (mistakes)",
}

// defaultCatalogKeys lists the banks offered when the catalog is unavailable.
var defaultCatalogKeys = []string{
	"general",
	"acp_ai_pro_single",
	"acp_ai_pro_multi",
	"aws_mls_c01_all_deepseek",
	"aws_mls_c01_all",
	"aws_mls_c01_all_doubao",
	"acp_ai_pro_single_example",
	"aws_mls_c01_example",
	"acp_ai_pro_errors",
	"acp_ai_pro_numbers",
}

// builtinTemplates is the template list used when exam/templates.json is missing.
var builtinTemplates = []entities.ExamTemplateRef{
	{File: "acp_exam_template.json", Name: "ACP AI Pro Exam", Description: "ACP AI professional certification exam"},
}

// DefaultCatalog returns the hard-coded bank catalog. File paths are left empty
// so that banks resolve through the path heuristic.
func DefaultCatalog() entities.Catalog {
	cat := make(entities.Catalog, len(defaultCatalogKeys))
	for _, key := range defaultCatalogKeys {
		cat[key] = entities.BankEntry{Key: key, Name: defaultBankNames[key]}
	}
	return cat
}

// BankRepository loads question banks and exam templates from a Source.
type BankRepository struct {
	source Source

	mu      sync.Mutex
	catalog entities.Catalog
	rnd     *rand.Rand
}

// NewBankRepository creates a BankRepository reading from source.
func NewBankRepository(source Source) *BankRepository {
	return &BankRepository{
		source: source,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Catalog returns the bank catalog. It is fetched once and cached; when it cannot
// be fetched the default catalog is returned together with the error.
func (r *BankRepository) Catalog(ctx context.Context) (entities.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return r.catalog, nil
	}

	data, err := r.source.Fetch(ctx, catalogPath)
	if err != nil {
		return DefaultCatalog(), fmt.Errorf("load bank catalog: %w", err)
	}

	var cat entities.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return DefaultCatalog(), fmt.Errorf("decode bank catalog: %w", err)
	}
	for key, entry := range cat {
		entry.Key = key
		cat[key] = entry
	}

	r.catalog = cat
	return cat, nil
}

// BankName returns the display name of a bank.
func (r *BankRepository) BankName(ctx context.Context, key string) string {
	cat, _ := r.Catalog(ctx)
	if entry, ok := cat[key]; ok && entry.Name != "" {
		return entry.Name
	}
	if name, ok := defaultBankNames[key]; ok {
		return name
	}
	return UnknownBankName
}

// LoadBank fetches the questions of the bank identified by key.
func (r *BankRepository) LoadBank(ctx context.Context, key string) ([]entities.Question, error) {
	cat, _ := r.Catalog(ctx)
	name := bankPath(cat, key)

	data, err := r.source.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load bank %q: %w", key, err)
	}

	var questions []entities.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode bank %q: %w", key, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("bank %q: %w", key, ErrEmptyBank)
	}

	return entities.Reindex(questions), nil
}

// bankPath resolves the document path of a bank: the catalog file when present,
// otherwise a path derived from the bank key.
func bankPath(cat entities.Catalog, key string) string {
	if entry, ok := cat[key]; ok && entry.File != "" {
		return normalizeDocumentPath(entry.File)
	}

	lower := strings.ToLower(key)
	file := key + ".json"
	switch {
	case strings.Contains(lower, "aws") && strings.Contains(lower, "mls"):
		return path.Join("AWS", "MLS", file)
	case strings.Contains(lower, "aws"):
		return path.Join("AWS", file)
	case strings.Contains(lower, "acp") && strings.Contains(lower, "ai_pro"):
		return path.Join("ACP", "AIPRO", file)
	case strings.Contains(lower, "acp"):
		return path.Join("ACP", file)
	default:
		return file
	}
}

// normalizeDocumentPath strips the web prefixes used by catalog files.
func normalizeDocumentPath(p string) string {
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "static/")
	return path.Clean(p)
}

// ExamTemplates lists the available exam templates, falling back to the built-in list.
func (r *BankRepository) ExamTemplates(ctx context.Context) ([]entities.ExamTemplateRef, error) {
	data, err := r.source.Fetch(ctx, templateIndexPath)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return slices.Clone(builtinTemplates), nil
		}
		return slices.Clone(builtinTemplates), fmt.Errorf("load exam templates: %w", err)
	}

	var refs []entities.ExamTemplateRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return slices.Clone(builtinTemplates), fmt.Errorf("decode exam templates: %w", err)
	}
	if len(refs) == 0 {
		return slices.Clone(builtinTemplates), nil
	}

	return refs, nil
}

// LoadExamTemplate fetches the exam template stored under exam/<ref>.
func (r *BankRepository) LoadExamTemplate(ctx context.Context, ref string) (*entities.ExamTemplate, error) {
	if ref == "" || strings.Contains(ref, "..") || strings.HasPrefix(ref, "/") {
		return nil, fmt.Errorf("%w: bad reference %q", ErrInvalidTemplate, ref)
	}

	data, err := r.source.Fetch(ctx, path.Join(templateDir, ref))
	if err != nil {
		return nil, fmt.Errorf("load exam template %q: %w", ref, err)
	}

	var tpl entities.ExamTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("decode exam template %q: %w", ref, err)
	}
	if len(tpl.Sections) == 0 {
		return nil, fmt.Errorf("%w: %q has no sections", ErrInvalidTemplate, ref)
	}

	tpl.Ref = ref
	if tpl.Name == "" {
		tpl.Name = strings.TrimSuffix(ref, path.Ext(ref))
	}

	return &tpl, nil
}

// LoadExamQuestions assembles the question set of an exam: each section samples
// its bank and may override the weight of the sampled questions.
func (r *BankRepository) LoadExamQuestions(ctx context.Context, tpl *entities.ExamTemplate) ([]entities.Question, error) {
	if tpl == nil {
		return nil, ErrInvalidTemplate
	}

	var questions []entities.Question
	for _, sec := range tpl.Sections {
		pool, err := r.LoadBank(ctx, sec.Bank)
		if err != nil {
			return nil, fmt.Errorf("exam %q section %q: %w", tpl.Name, sec.Bank, err)
		}

		sample := r.RandomQuestions(pool, sec.Count)
		if sec.Score != nil {
			for i := range sample {
				score := *sec.Score
				sample[i].Score = &score
			}
		}
		questions = append(questions, sample...)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("exam %q: %w", tpl.Name, ErrEmptyBank)
	}
	if tpl.Shuffle {
		r.shuffle(questions)
	}

	return entities.Reindex(questions), nil
}

// RandomQuestions returns count questions drawn at random from pool.
// A count of zero or less returns a copy of the whole pool in order.
func (r *BankRepository) RandomQuestions(pool []entities.Question, count int) []entities.Question {
	out := slices.Clone(pool)
	if count <= 0 {
		return out
	}

	r.shuffle(out)
	return out[:min(count, len(out))]
}

func (r *BankRepository) shuffle(questions []entities.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
