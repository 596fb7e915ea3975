package models

// Exercise is a read-mostly catalog entry. Global entries come from the
// shared database; user-authored entries have IsGlobal=false and are merged
// with the global catalog at read time.
type Exercise struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	TargetMuscleGroup string  `json:"targetMuscleGroup"`
	PrimaryEquipment  string  `json:"primaryEquipment"`
	DifficultyLevel   string  `json:"difficultyLevel"`
	ExerciseTier      int     `json:"exerciseTier"`
	IsFoundational    bool    `json:"isFoundational"`
	PopularityScore   float64 `json:"popularityScore"`
	IsGlobal          bool    `json:"isGlobal"`
}

// Favorite marks an exercise as favorited by the current user.
type Favorite struct {
	ExerciseID string `json:"exerciseId"`
}
