package entities

import "testing"

func TestReward(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		effort   int
		want     int
	}{
		{"low effort 1", PriorityLow, 1, 5},
		{"low effort 2", PriorityLow, 2, 10},
		{"low effort 5", PriorityLow, 5, 25},
		{"medium effort 1 rounds half up", PriorityMedium, 1, 8},
		{"medium effort 2", PriorityMedium, 2, 15},
		{"medium effort 3 rounds half up", PriorityMedium, 3, 23},
		{"medium effort 4", PriorityMedium, 4, 30},
		{"high effort 1", PriorityHigh, 1, 10},
		{"high effort 3", PriorityHigh, 3, 30},
		{"high effort 5", PriorityHigh, 5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reward(tt.priority, tt.effort); got != tt.want {
				t.Errorf("Reward(%s, %d) = %d, want %d", tt.priority, tt.effort, got, tt.want)
			}
		})
	}
}

func TestMilestonesAscending(t *testing.T) {
	for i := 1; i < len(Milestones); i++ {
		if Milestones[i].Threshold <= Milestones[i-1].Threshold {
			t.Errorf("milestone %q threshold %d not above previous %d",
				Milestones[i].Name, Milestones[i].Threshold, Milestones[i-1].Threshold)
		}
	}
}
