package remote

import (
	"sort"
	"strconv"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// bundleResponse is returned by bundle create, extend and check.
type bundleResponse struct {
	BundleHash   string   `json:"bundleHash"`
	MissingFiles []string `json:"missingFiles"`
}

// extendBundleRequest is the body of an extend request.
type extendBundleRequest struct {
	Files        map[string]string `json:"files"`
	RemovedFiles []string          `json:"removedFiles"`
}

// uploadFile is one entry of an upload request.
type uploadFile struct {
	FileHash    string `json:"fileHash"`
	FileContent string `json:"fileContent"`
}

// analysisRequest asks for the analysis of a bundle.
type analysisRequest struct {
	Key analysisKey `json:"key"`
}

type analysisKey struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// analysisResponse is the analysis status payload.
type analysisResponse struct {
	Status          string           `json:"status"`
	Progress        float64          `json:"progress"`
	AnalysisResults *analysisResults `json:"analysisResults,omitempty"`
}

type analysisResults struct {
	// Suggestions are keyed by suggestion index.
	Suggestions map[string]suggestionDTO `json:"suggestions"`

	// Files map a bundle path to suggestion index to occurrences.
	Files map[string]map[string][]occurrenceDTO `json:"files"`
}

type suggestionDTO struct {
	ID       string `json:"id"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
}

type occurrenceDTO struct {
	Rows    []int       `json:"rows"`
	Cols    []int       `json:"cols"`
	Markers []markerDTO `json:"markers"`
}

type markerDTO struct {
	Msg []int         `json:"msg"`
	Pos []positionDTO `json:"pos"`
}

type positionDTO struct {
	File string `json:"file"`
	Rows []int  `json:"rows"`
	Cols []int  `json:"cols"`
}

// filtersResponse lists the files the service can analyse.
type filtersResponse struct {
	Extensions  []string `json:"extensions"`
	ConfigFiles []string `json:"configFiles"`
}

func (r bundleResponse) toDomain() *domain.Bundle {
	return &domain.Bundle{
		ID:           r.BundleHash,
		MissingFiles: r.MissingFiles,
	}
}

// toDomain converts the payload. Files are ordered by name and suggestions
// by index so results are deterministic.
func (r analysisResponse) toDomain(status domain.AnalysisStatus) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		Status:   status,
		Progress: r.Progress,
	}
	if r.AnalysisResults == nil {
		return result
	}

	names := make([]string, 0, len(r.AnalysisResults.Files))
	for name := range r.AnalysisResults.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fa := domain.FileAnalysis{FileName: name}
		byIndex := r.AnalysisResults.Files[name]
		for _, idx := range sortedIndexes(byIndex) {
			s := r.AnalysisResults.Suggestions[idx]
			for _, occ := range byIndex[idx] {
				fa.Suggestions = append(fa.Suggestions, domain.Suggestion{
					ID:       s.ID,
					RuleID:   s.Rule,
					Message:  s.Message,
					Severity: domain.Severity(s.Severity),
					Rows:     pair(occ.Rows),
					Columns:  pair(occ.Cols),
					Markers:  markers(occ.Markers),
				})
			}
		}
		result.FileAnalyses = append(result.FileAnalyses, fa)
	}
	return result
}

// sortedIndexes orders suggestion indexes numerically, falling back to
// lexical order for non numeric keys.
func sortedIndexes(m map[string][]occurrenceDTO) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func markers(in []markerDTO) []domain.Marker {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Marker, 0, len(in))
	for _, m := range in {
		marker := domain.Marker{MessageIndexes: m.Msg}
		for _, p := range m.Pos {
			marker.Positions = append(marker.Positions, domain.Position{
				File:    p.File,
				Rows:    pair(p.Rows),
				Columns: pair(p.Cols),
			})
		}
		out = append(out, marker)
	}
	return out
}

// pair converts a [start, end] array. A single value is used for both.
func pair(v []int) [2]int {
	switch len(v) {
	case 0:
		return [2]int{}
	case 1:
		return [2]int{v[0], v[0]}
	default:
		return [2]int{v[0], v[1]}
	}
}
