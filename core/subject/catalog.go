package subject

// DefaultSubjects returns the subjects the catalog is seeded with.
func DefaultSubjects() []Subject {
	names := []struct {
		cat   Category
		names []string
	}{
		{CategoryVerrichtingen, []string{
			"Bootbehandeling", "Riemenbehandeling", "In- en uitstappen", "Wegvaren", "Aanleggen",
			"Strijken", "Ronden", "Halend aanleggen", "Houden", "Manoeuvres waterzijde",
			"Noodstop", "Slippen", "Wisselen in de boot", "Bootvervoer",
		}},
		{CategoryRoeitechniek, []string{
			"Inpik", "Doorhaal", "Uitpik", "Recover", "Balans", "Ritme",
			"Kracht", "Ademhaling", "Gelijk roeien", "Houding", "Techniekkennis",
		}},
		{CategoryStuurkunst, []string{
			"Koersvastheid", "Commando's", "Startprocedure", "Brugpassage", "Vaarregels",
			"Omgaan met omstandigheden", "Botenhuis kennis", "Veiligheid",
		}},
	}

	subjects := make([]Subject, 0, 33)
	for _, group := range names {
		for _, name := range group.names {
			subjects = append(subjects, Subject{
				ID:       len(subjects) + 1,
				Name:     name,
				Category: group.cat,
				Active:   true,
			})
		}
	}
	return subjects
}

// DefaultTests returns the tests the catalog is seeded with.
func DefaultTests() []Test {
	return []Test{
		{ID: 1, Name: "Theorie Basistest", Description: "Basiskennis over roeitechniek en -termen"},
		{ID: 2, Name: "Praktijk Basistest", Description: "Basistechnieken in praktijk"},
		{ID: 3, Name: "Theorie Scullen", Description: "Theoretische kennis over scullen"},
		{ID: 4, Name: "Praktijk Scullen", Description: "Praktische vaardigheden scullen"},
		{ID: 5, Name: "Theorie Boordroeien", Description: "Theoretische kennis over boordroeien"},
		{ID: 6, Name: "Praktijk Boordroeien", Description: "Praktische vaardigheden boordroeien"},
		{ID: 7, Name: "Theorie Sturen", Description: "Theoretische kennis over sturen"},
		{ID: 8, Name: "Praktijk Sturen", Description: "Praktische vaardigheden sturen"},
		{ID: 9, Name: "Theorie Gevorderd", Description: "Gevorderde theoretische kennis"},
		{ID: 10, Name: "Praktijk Gevorderd", Description: "Gevorderde praktische vaardigheden"},
	}
}
