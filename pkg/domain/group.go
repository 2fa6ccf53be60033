package domain

// CalibrationStatus はグループのプロンプト校正状態です。
type CalibrationStatus string

const (
	CalibrationIdle        CalibrationStatus = "idle"
	CalibrationCalibrating CalibrationStatus = "calibrating"
	CalibrationDone        CalibrationStatus = "done"
	CalibrationFailed      CalibrationStatus = "failed"
)

// ShotGroup は1回の動画生成にまとめる 2〜4 ショットのチェーンです。
type ShotGroup struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	SceneIDs          []int             `json:"sceneIds"`
	TotalDuration     float64           `json:"totalDuration"`
	CalibrationStatus CalibrationStatus `json:"calibrationStatus,omitempty"`
	VideoStatus       FrameStatus       `json:"videoStatus,omitempty"`
	VideoProgress     int               `json:"videoProgress"`
	VideoURL          string            `json:"videoUrl,omitempty"`
	VideoError        string            `json:"videoError,omitempty"`
}

// Contains はショットIDがグループに含まれるかを返します。
func (g ShotGroup) Contains(id int) bool {
	for _, sid := range g.SceneIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// Clone は SceneIDs を含めて複製します。
func (g ShotGroup) Clone() ShotGroup {
	c := g
	if g.SceneIDs != nil {
		c.SceneIDs = make([]int, len(g.SceneIDs))
		copy(c.SceneIDs, g.SceneIDs)
	}
	return c
}

// AssignedShotIDs は既存グループに割り当て済みのショットIDの集合です。
func AssignedShotIDs(groups []ShotGroup) map[int]struct{} {
	set := make(map[int]struct{})
	for _, g := range groups {
		for _, id := range g.SceneIDs {
			set[id] = struct{}{}
		}
	}
	return set
}
