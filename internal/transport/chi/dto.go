package chi

import (
	"fmt"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/terralab/georag/internal/domain/record"
	"github.com/terralab/georag/internal/domain/search/result"
)

// errorCode is the machine-readable error discriminator in error responses.
type errorCode string

const (
	codeBadRequest            errorCode = "bad_request"
	codeInvalidQuery          errorCode = "invalid_query"
	codeInvalidWeights        errorCode = "invalid_weights"
	codeRecordNotFound        errorCode = "record_not_found"
	codeEmbeddingUnavailable  errorCode = "embedding_unavailable"
	codeGenerationUnavailable errorCode = "generation_unavailable"
	codeIndexUnavailable      errorCode = "index_unavailable"
	codeRetrievalUnavailable  errorCode = "retrieval_unavailable"
	codeIngestionHalted       errorCode = "ingestion_halted"
	codeDimensionMismatch     errorCode = "dimension_mismatch"
	codeDeadlineExceeded      errorCode = "deadline_exceeded"
	codeInternalError         errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type searchRequest struct {
	Query         string   `json:"query"`
	TopK          int      `json:"top_k"`
	VectorWeight  *float64 `json:"vector_weight,omitempty"`
	LexicalWeight *float64 `json:"lexical_weight,omitempty"`
}

type askRequest struct {
	Question      string   `json:"question"`
	TopK          int      `json:"top_k,omitempty"`
	VectorWeight  *float64 `json:"vector_weight,omitempty"`
	LexicalWeight *float64 `json:"lexical_weight,omitempty"`
}

type searchHit struct {
	ID           string      `json:"id"`
	Score        float64     `json:"score"`
	VectorScore  float64     `json:"vector_score"`
	LexicalScore float64     `json:"lexical_score"`
	Record       *recordBody `json:"record,omitempty"`
}

type searchResponse struct {
	Items []searchHit `json:"items"`
	Total int         `json:"total"`
}

type bboxBody struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

type recordBody struct {
	Title     string     `json:"title,omitempty"`
	Abstract  string     `json:"abstract,omitempty"`
	Keywords  []string   `json:"keywords,omitempty"`
	BBox      *bboxBody  `json:"bbox,omitempty"`
	TimeBegin *time.Time `json:"time_begin,omitempty"`
	TimeEnd   *time.Time `json:"time_end,omitempty"`
}

type recordResponse struct {
	ID string `json:"id"`
	recordBody
}

type upsertRecordRequest struct {
	Title     string     `json:"title"`
	Abstract  string     `json:"abstract"`
	Keywords  []string   `json:"keywords,omitempty"`
	BBox      *bboxBody  `json:"bbox,omitempty"`
	TimeBegin *time.Time `json:"time_begin,omitempty"`
	TimeEnd   *time.Time `json:"time_end,omitempty"`
}

func recordFromUpsert(id string, req *upsertRecordRequest) (record.Record, error) {
	var ext *record.Extent
	if req.BBox != nil || req.TimeBegin != nil || req.TimeEnd != nil {
		var bounds, err = boundsFromBody(req.BBox)
		if err != nil {
			return record.Record{}, err
		}
		ext = record.NewExtent(bounds, req.TimeBegin, req.TimeEnd)
	}

	rec, err := record.New(id, req.Title, req.Abstract, req.Keywords, ext)
	if err != nil {
		return record.Record{}, fmt.Errorf("build record: %w", err)
	}
	return rec, nil
}

func boundsFromBody(b *bboxBody) (*geom.Bounds, error) {
	if b == nil {
		return nil, nil
	}
	bounds, err := record.BoundsFromWSEN(b.West, b.South, b.East, b.North)
	if err != nil {
		return nil, fmt.Errorf("bbox: %w", err)
	}
	return bounds, nil
}

func recordToBody(rec *record.Record) *recordBody {
	if rec == nil {
		return nil
	}
	body := &recordBody{
		Title:    rec.Title(),
		Abstract: rec.Abstract(),
		Keywords: rec.Keywords(),
	}
	if ext := rec.Extent(); ext != nil {
		if b := ext.Bounds(); b != nil {
			body.BBox = &bboxBody{
				West:  b.Min(0),
				South: b.Min(1),
				East:  b.Max(0),
				North: b.Max(1),
			}
		}
		body.TimeBegin = ext.Begin()
		body.TimeEnd = ext.End()
	}
	return body
}

func resultToHit(r *result.Result) searchHit {
	return searchHit{
		ID:           r.ID(),
		Score:        r.Score(),
		VectorScore:  r.VectorScore(),
		LexicalScore: r.LexicalScore(),
		Record:       recordToBody(r.Record()),
	}
}
