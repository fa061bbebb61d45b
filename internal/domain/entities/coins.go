package entities

import "math"

// OverduePenalty is the fixed debit applied once to a task left pending past
// its due date.
const OverduePenalty = 20

const rewardBase = 10.0

var priorityMultiplier = map[Priority]float64{
	PriorityLow:    1,
	PriorityMedium: 1.5,
	PriorityHigh:   2,
}

// Reward computes the coin reward for completing a task:
// round(10 * priorityMultiplier * effort * 0.5), rounded half-up.
// Effort must already be clamped to [1,5] by the caller; the formula itself
// does not validate the range.
func Reward(priority Priority, effort int) int {
	effortMultiplier := float64(effort) * 0.5
	coins := rewardBase * priorityMultiplier[priority] * effortMultiplier
	return int(math.Floor(coins + 0.5))
}

// Milestone pairs a lifetime-coin threshold with the badge it awards.
type Milestone struct {
	Threshold   int
	Name        string
	Icon        string
	Description string
}

// Milestones lists the achievement thresholds in ascending order. Every
// threshold a user has crossed is awarded in a single evaluation pass.
var Milestones = []Milestone{
	{Threshold: 10, Name: "First Steps", Icon: "🌟", Description: "Completed your first task!"},
	{Threshold: 100, Name: "Rising Star", Icon: "⭐", Description: "Earned 100 lifetime coins"},
	{Threshold: 500, Name: "Dedicated", Icon: "💪", Description: "Earned 500 lifetime coins"},
	{Threshold: 1000, Name: "Champion", Icon: "🏆", Description: "Earned 1000 lifetime coins"},
	{Threshold: 5000, Name: "Legend", Icon: "👑", Description: "Earned 5000 lifetime coins"},
}
