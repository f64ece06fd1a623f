package domain

// FallbackQuestion is an entry of the built-in question set used when no
// generator credential is configured or the pool is empty.
type FallbackQuestion struct {
	Category string
	GeneratedQuestion
}

// FallbackQuestions returns a fresh copy of the built-in question set.
func FallbackQuestions() []FallbackQuestion {
	out := make([]FallbackQuestion, len(fallbackQuestions))
	copy(out, fallbackQuestions)
	return out
}

func fq(category, text string, choices [ChoiceCount]string, correct Label, difficulty int) FallbackQuestion {
	return FallbackQuestion{
		Category: category,
		GeneratedQuestion: GeneratedQuestion{
			Text:       text,
			Choices:    choices,
			Correct:    correct,
			Difficulty: difficulty,
		},
	}
}

var fallbackQuestions = []FallbackQuestion{
	fq("General", "What planet is known as the Red Planet?", [4]string{"Venus", "Mars", "Jupiter", "Saturn"}, LabelB, 1),
	fq("Science", "What is the chemical symbol for water?", [4]string{"O2", "H2O", "CO2", "HO"}, LabelB, 1),
	fq("Math", "What is 2 + 2?", [4]string{"3", "4", "5", "22"}, LabelB, 1),
	fq("History", "Who was the first president of the United States?", [4]string{"Abraham Lincoln", "Thomas Jefferson", "George Washington", "John Adams"}, LabelC, 1),
	fq("Science", "What is the chemical symbol for gold?", [4]string{"Ag", "Au", "Gd", "Go"}, LabelB, 2),
	fq("Science", "What gas do plants absorb for photosynthesis?", [4]string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, LabelC, 2),
	fq("Science", "What is the smallest bone in the human body?", [4]string{"Stapes", "Femur", "Ulna", "Patella"}, LabelA, 4),
	fq("History", "In what year did World War II end?", [4]string{"1918", "1939", "1945", "1950"}, LabelC, 2),
	fq("History", "In what year did the Titanic sink?", [4]string{"1905", "1912", "1921", "1931"}, LabelB, 3),
	fq("History", "Who invented the movable-type printing press in Europe?", [4]string{"Johannes Gutenberg", "Leonardo da Vinci", "Isaac Newton", "Galileo Galilei"}, LabelA, 3),
	fq("Geography", "What is the capital of France?", [4]string{"Lyon", "Marseille", "Paris", "Nice"}, LabelC, 1),
	fq("Geography", "Which is the largest continent?", [4]string{"Africa", "Asia", "Europe", "Antarctica"}, LabelB, 1),
	fq("Geography", "What is the capital of Japan?", [4]string{"Kyoto", "Osaka", "Tokyo", "Sapporo"}, LabelC, 1),
	fq("Literature", "Who wrote 'Romeo and Juliet'?", [4]string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, LabelB, 1),
	fq("Literature", "Who wrote '1984'?", [4]string{"Aldous Huxley", "Ray Bradbury", "George Orwell", "H. G. Wells"}, LabelC, 2),
	fq("Literature", "Who wrote 'Pride and Prejudice'?", [4]string{"Emily Bronte", "Jane Austen", "Mary Shelley", "Virginia Woolf"}, LabelB, 2),
	fq("Sports", "How many players per team are on a basketball court?", [4]string{"Four", "Five", "Six", "Seven"}, LabelB, 1),
	fq("Sports", "In what year were the first modern Olympics held?", [4]string{"1896", "1900", "1912", "1924"}, LabelA, 4),
	fq("Sports", "What is the maximum break in snooker?", [4]string{"100", "147", "155", "180"}, LabelB, 4),
	fq("Movies", "What year was the first Star Wars film released?", [4]string{"1975", "1977", "1980", "1983"}, LabelB, 3),
	fq("Movies", "What is the name of the main character in The Matrix?", [4]string{"Morpheus", "Trinity", "Neo", "Cypher"}, LabelC, 2),
}
