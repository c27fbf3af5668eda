package contracts

// Screen pipeline stages (SSOT)
// 로그와 진행 표시는 이 상수를 사용
//
//   universe → hard_filter → prelim_score → select → enrich → final_score → emit

// Stage represents a screen pipeline stage
type Stage string

const (
	StageUniverse    Stage = "S1_UNIVERSE"
	StageHardFilter  Stage = "S1_HARD_FILTER"
	StagePrelimScore Stage = "S3_PRELIM_SCORE"
	StageSelect      Stage = "S3_SELECT"
	StageEnrich      Stage = "S2_ENRICH"
	StageFinalScore  Stage = "S4_FINAL_SCORE"
	StageEmit        Stage = "S5_EMIT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns a short human description of the stage
func (s Stage) Description() string {
	switch s {
	case StageUniverse:
		return "全市场股票列表"
	case StageHardFilter:
		return "硬性过滤"
	case StagePrelimScore:
		return "初步评分"
	case StageSelect:
		return "候选截取"
	case StageEnrich:
		return "技术指标补充"
	case StageFinalScore:
		return "最终评分排序"
	case StageEmit:
		return "输出结果"
	default:
		return "未知"
	}
}

// AllStages returns all stages in execution order
func AllStages() []Stage {
	return []Stage{
		StageUniverse,
		StageHardFilter,
		StagePrelimScore,
		StageSelect,
		StageEnrich,
		StageFinalScore,
		StageEmit,
	}
}

// StageResult records counts and timing of one stage
type StageResult struct {
	Stage       Stage  `json:"stage"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
