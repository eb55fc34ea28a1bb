package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/sportsreg/internal/model"
	"github.com/hitoshi/sportsreg/internal/repository"
)

// seedPrograms はカタログの初期データ。
var seedPrograms = []model.Program{
	{
		ID:                  1,
		Name:                "Community Basketball",
		Category:            "Team Sports",
		Price:               "Free",
		Description:         "Join our weekly basketball sessions for all skill levels. Build teamwork skills while staying fit.",
		DetailedDescription: "Our community basketball program runs every Saturday morning at the local community center. We provide all equipment and have experienced coaches to help players of all levels improve their game.",
		Schedule:            "Saturdays 9:00 AM - 11:00 AM",
		Location:            "Melbourne Community Center",
		Difficulty:          "Beginner",
		MaxParticipants:     30,
	},
	{
		ID:                  2,
		Name:                "Family Soccer",
		Category:            "Team Sports",
		Price:               "$10",
		Description:         "Friendly soccer matches perfect for families. Kids and parents play together in a supportive environment.",
		DetailedDescription: "Family Soccer brings parents and children together on the field for fun, non-competitive matches. This program emphasizes participation over competition.",
		Schedule:            "Sundays 2:00 PM - 4:00 PM",
		Location:            "Richmond Park",
		Difficulty:          "Beginner",
		MaxParticipants:     40,
	},
	{
		ID:                  3,
		Name:                "Morning Yoga",
		Category:            "Wellness",
		Price:               "$15",
		Description:         "Start your day with gentle yoga suitable for all ages and fitness levels.",
		DetailedDescription: "Our morning yoga sessions focus on gentle movements, breathing exercises, and mindfulness. All mats and props are provided.",
		Schedule:            "Mon, Wed, Fri 7:00 AM - 8:00 AM",
		Location:            "Southbank Wellness Center",
		Difficulty:          "Beginner",
		MaxParticipants:     20,
	},
	{
		ID:                  4,
		Name:                "Swimming Lessons",
		Category:            "Individual",
		Price:               "$20",
		Description:         "Learn to swim or improve your technique with certified instructors.",
		DetailedDescription: "Professional swimming instruction for all levels, from complete beginners to stroke improvement. Small class sizes ensure personalized attention.",
		Schedule:            "Tuesdays & Thursdays 6:00 PM - 7:00 PM",
		Location:            "Melbourne Aquatic Centre",
		Difficulty:          "Intermediate",
		MaxParticipants:     15,
	},
	{
		ID:                  5,
		Name:                "Walking Group",
		Category:            "Fitness",
		Price:               "Free",
		Description:         "Social walking group exploring Melbourne's beautiful parks and neighborhoods.",
		DetailedDescription: "Join our friendly walking group as we explore different parts of Melbourne. Each week features a new route, and we welcome walkers of all paces.",
		Schedule:            "Wednesdays 10:00 AM - 12:00 PM",
		Location:            "Various locations",
		Difficulty:          "Beginner",
		MaxParticipants:     30,
	},
	{
		ID:                  6,
		Name:                "Tennis Clinic",
		Category:            "Individual",
		Price:               "$15",
		Description:         "Improve your tennis skills with group lessons led by qualified coaches.",
		DetailedDescription: "Our tennis clinic offers group lessons focusing on technique, strategy, and match play. Racquets available for loan.",
		Schedule:            "Saturdays 3:00 PM - 4:30 PM",
		Location:            "Albert Park Tennis Courts",
		Difficulty:          "Intermediate",
		MaxParticipants:     20,
	},
	{
		ID:                  7,
		Name:                "Tai Chi in the Park",
		Category:            "Wellness",
		Price:               "Free",
		Description:         "Gentle movement practice perfect for seniors and stress relief.",
		DetailedDescription: "Practice the ancient art of Tai Chi in the peaceful setting of our local park. This low-impact exercise improves balance, flexibility, and mental wellbeing.",
		Schedule:            "Thursdays 8:00 AM - 9:00 AM",
		Location:            "Carlton Gardens",
		Difficulty:          "Beginner",
		MaxParticipants:     25,
	},
	{
		ID:                  8,
		Name:                "Cycling Club",
		Category:            "Fitness",
		Price:               "$10",
		Description:         "Group cycling rides along Melbourne's bike paths and trails.",
		DetailedDescription: "Explore Melbourne by bike with our cycling club. Routes vary from leisurely rides along the Yarra to more challenging trail rides.",
		Schedule:            "Sundays 8:00 AM - 10:30 AM",
		Location:            "Various bike paths",
		Difficulty:          "Intermediate",
		MaxParticipants:     25,
	},
}

// SeedPrograms はプログラムカタログの初期データを投入し、新規作成した件数を返す。
// 既に存在するIDはスキップするため、何度実行しても安全。
func SeedPrograms(ctx context.Context, programRepo repository.ProgramRepository) (int, error) {
	created := 0
	now := time.Now()

	for i := range seedPrograms {
		p := seedPrograms[i]
		p.CreatedAt = now
		p.UpdatedAt = now

		err := programRepo.Create(ctx, &p)
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed program %q: %w", p.Name, err)
		}
		created++
	}

	return created, nil
}
