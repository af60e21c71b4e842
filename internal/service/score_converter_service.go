package service

import (
	"math"

	"github.com/lshigami/examcore/internal/model"
)

// IELTSRawDomain is the number of items the IELTS listening and reading
// conversion tables are defined over.
const IELTSRawDomain = 40

// bandStep maps every raw score >= MinRaw (and below the previous step) to Band.
type bandStep struct {
	MinRaw int
	Band   float64
}

// Steps are ordered by descending MinRaw.
var (
	ieltsListeningTable = []bandStep{
		{39, 9.0}, {37, 8.5}, {35, 8.0}, {32, 7.5}, {30, 7.0}, {26, 6.5}, {23, 6.0},
		{18, 5.5}, {16, 5.0}, {13, 4.5}, {10, 4.0}, {8, 3.5}, {6, 3.0}, {4, 2.5},
		{3, 2.0}, {2, 1.5}, {1, 1.0}, {0, 0},
	}
	ieltsAcademicReadingTable = []bandStep{
		{39, 9.0}, {37, 8.5}, {35, 8.0}, {33, 7.5}, {30, 7.0}, {27, 6.5}, {23, 6.0},
		{19, 5.5}, {15, 5.0}, {13, 4.5}, {10, 4.0}, {8, 3.5}, {6, 3.0}, {4, 2.5},
		{3, 2.0}, {2, 1.5}, {1, 1.0}, {0, 0},
	}
	ieltsGeneralReadingTable = []bandStep{
		{40, 9.0}, {39, 8.5}, {37, 8.0}, {36, 7.5}, {34, 7.0}, {32, 6.5}, {30, 6.0},
		{27, 5.5}, {23, 5.0}, {19, 4.5}, {15, 4.0}, {12, 3.5}, {9, 3.0}, {6, 2.5},
		{4, 2.0}, {3, 1.5}, {1, 1.0}, {0, 0},
	}
)

type ScoreConverterService interface {
	IELTSListeningBand(raw int) float64
	IELTSReadingBand(raw int, variant model.ExamVariant) float64
	IELTSCriteriaBand(c model.BandCriteria) float64
	IELTSOverallBand(bands []float64) float64
	SectionBand(exam *model.Exam, sectionType model.SectionType, earned, max float64, criteria []model.BandCriteria) float64
	Scale(exam *model.Exam, sections []SectionTally) *model.ScaledScore
}

// SectionTally is the raw score of one section, the unit every exam
// standard converts from.
type SectionTally struct {
	SectionID   uint
	SectionType model.SectionType
	Earned      float64
	Max         float64
	Criteria    []model.BandCriteria
}

func (t SectionTally) Accuracy() float64 {
	if t.Max <= 0 {
		return 0
	}
	return t.Earned / t.Max
}

type scoreConverterServiceImpl struct{}

func NewScoreConverterService() ScoreConverterService {
	return &scoreConverterServiceImpl{}
}

func lookupBand(table []bandStep, raw int) float64 {
	if raw < 0 {
		raw = 0
	}
	if raw > IELTSRawDomain {
		raw = IELTSRawDomain
	}
	for _, step := range table {
		if raw >= step.MinRaw {
			return step.Band
		}
	}
	return 0
}

func (s *scoreConverterServiceImpl) IELTSListeningBand(raw int) float64 {
	return lookupBand(ieltsListeningTable, raw)
}

func (s *scoreConverterServiceImpl) IELTSReadingBand(raw int, variant model.ExamVariant) float64 {
	if variant == model.VariantGeneralTraining {
		return lookupBand(ieltsGeneralReadingTable, raw)
	}
	return lookupBand(ieltsAcademicReadingTable, raw)
}

// IELTSCriteriaBand averages the four criteria and rounds to the nearest half band.
func (s *scoreConverterServiceImpl) IELTSCriteriaBand(c model.BandCriteria) float64 {
	mean := (c.TaskResponse + c.Coherence + c.Lexical + c.Grammar) / 4
	return clamp(RoundToHalf(mean), 0, 9)
}

func (s *scoreConverterServiceImpl) IELTSOverallBand(bands []float64) float64 {
	if len(bands) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bands {
		sum += b
	}
	return RoundIELTSOverall(sum / float64(len(bands)))
}

// RoundIELTSOverall applies the official overall-band rule: a fractional part
// below .25 rounds down, .25 up to .75 (exclusive) becomes .5, and .75 or more
// rounds up to the next whole band.
func RoundIELTSOverall(mean float64) float64 {
	whole := math.Floor(mean)
	frac := mean - whole
	const eps = 1e-9
	switch {
	case frac < 0.25-eps:
		return whole
	case frac < 0.75-eps:
		return whole + 0.5
	default:
		return whole + 1
	}
}

func RoundToHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// RescaleToIELTSDomain projects a section raw score onto the 0..40 domain
// of the conversion tables. A 40-mark section maps onto itself.
func RescaleToIELTSDomain(earned, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(clamp(earned/max, 0, 1) * IELTSRawDomain))
}

func TOEFLSectionScore(accuracy float64) float64 {
	return math.Round(clamp(accuracy, 0, 1) * 30)
}

func PTESectionScore(accuracy float64) float64 {
	return math.Round(10 + 80*clamp(accuracy, 0, 1))
}

func GREWritingScore(accuracy float64) float64 {
	return RoundToHalf(clamp(accuracy, 0, 1) * 6)
}

// SectionBand is the IELTS band of one section. Writing and speaking use the
// criteria when a grader supplied them, otherwise the graded accuracy.
func (s *scoreConverterServiceImpl) SectionBand(exam *model.Exam, sectionType model.SectionType, earned, max float64, criteria []model.BandCriteria) float64 {
	switch sectionType {
	case model.SectionListening:
		return s.IELTSListeningBand(RescaleToIELTSDomain(earned, max))
	case model.SectionReading:
		return s.IELTSReadingBand(RescaleToIELTSDomain(earned, max), exam.Variant)
	case model.SectionWriting, model.SectionSpeaking:
		if len(criteria) > 0 {
			bands := 0.0
			for _, c := range criteria {
				bands += s.IELTSCriteriaBand(c)
			}
			return RoundToHalf(bands / float64(len(criteria)))
		}
		if max <= 0 {
			return 0
		}
		return RoundToHalf(clamp(earned/max, 0, 1) * 9)
	}
	return 0
}

// Scale converts per-section tallies with the exam type's own standard only.
// Exam types without a standard yield nil.
func (s *scoreConverterServiceImpl) Scale(exam *model.Exam, sections []SectionTally) *model.ScaledScore {
	if exam == nil || len(sections) == 0 {
		return nil
	}
	byType := mergeByType(sections)

	scaled := &model.ScaledScore{Type: exam.ExamType, SectionScores: map[string]float64{}}
	switch exam.ExamType {
	case model.ExamTypeIELTS:
		scaled.TestType = exam.Variant
		if scaled.TestType == "" {
			scaled.TestType = model.VariantAcademic
		}
		var bands []float64
		for _, t := range byType {
			switch t.SectionType {
			case model.SectionListening, model.SectionReading, model.SectionWriting, model.SectionSpeaking:
				band := s.SectionBand(exam, t.SectionType, t.Earned, t.Max, t.Criteria)
				scaled.SectionScores[string(t.SectionType)] = band
				bands = append(bands, band)
			}
		}
		scaled.Score = s.IELTSOverallBand(bands)
	case model.ExamTypeTOEFL:
		total := 0.0
		for _, t := range byType {
			v := TOEFLSectionScore(t.Accuracy())
			scaled.SectionScores[string(t.SectionType)] = v
			total += v
		}
		scaled.Score = total
	case model.ExamTypePTE:
		sum := 0.0
		for _, t := range byType {
			v := PTESectionScore(t.Accuracy())
			scaled.SectionScores[string(t.SectionType)] = v
			sum += v
		}
		scaled.Score = math.Round(sum / float64(len(byType)))
	case model.ExamTypeGRE:
		var earned, max float64
		for _, t := range byType {
			earned += t.Earned
			max += t.Max
			scaled.SectionScores[string(t.SectionType)] = GREWritingScore(t.Accuracy())
		}
		acc := 0.0
		if max > 0 {
			acc = earned / max
		}
		scaled.Score = GREWritingScore(acc)
	default:
		return nil
	}
	return scaled
}

// mergeByType folds tallies of sections sharing a section type, ordered by
// first appearance.
func mergeByType(sections []SectionTally) []SectionTally {
	idx := map[model.SectionType]int{}
	var out []SectionTally
	for _, t := range sections {
		i, ok := idx[t.SectionType]
		if !ok {
			idx[t.SectionType] = len(out)
			out = append(out, SectionTally{SectionType: t.SectionType})
			i = len(out) - 1
		}
		out[i].Earned += t.Earned
		out[i].Max += t.Max
		out[i].Criteria = append(out[i].Criteria, t.Criteria...)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
