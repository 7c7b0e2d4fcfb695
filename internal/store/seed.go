package store

import "log"

type seedQuestion struct {
	area       TechArea
	difficulty string
	en, es, pt string
	concepts   string
}

var seedQuestions = []seedQuestion{
	{
		area:       TechAreaJavaScript,
		difficulty: "easy",
		en:         "What is the difference between 'let', 'const', and 'var' in JavaScript?",
		es:         "¿Cuál es la diferencia entre 'let', 'const' y 'var' en JavaScript?",
		pt:         "Qual é a diferença entre 'let', 'const' e 'var' em JavaScript?",
		concepts:   "scope, hoisting, reassignment, block scope",
	},
	{
		area:       TechAreaJavaScript,
		difficulty: "medium",
		en:         "Explain how closures work in JavaScript with an example.",
		es:         "Explica cómo funcionan los closures en JavaScript con un ejemplo.",
		pt:         "Explique como funcionam as closures em JavaScript com um exemplo.",
		concepts:   "closure, lexical scope, inner function, outer function variables",
	},
	{
		area:       TechAreaPython,
		difficulty: "easy",
		en:         "What is the difference between a list and a tuple in Python?",
		es:         "¿Cuál es la diferencia entre una lista y una tupla en Python?",
		pt:         "Qual é a diferença entre uma lista e uma tupla em Python?",
		concepts:   "mutability, immutability, performance, use cases",
	},
	{
		area:       TechAreaPython,
		difficulty: "medium",
		en:         "Explain list comprehensions in Python and provide an example.",
		es:         "Explica las list comprehensions en Python y proporciona un ejemplo.",
		pt:         "Explique list comprehensions em Python e forneça um exemplo.",
		concepts:   "list comprehension, syntax, filtering, mapping, performance",
	},
	{
		area:       TechAreaRuby,
		difficulty: "easy",
		en:         "What is the difference between a symbol and a string in Ruby?",
		es:         "¿Cuál es la diferencia entre un símbolo y un string en Ruby?",
		pt:         "Qual é a diferença entre um símbolo e uma string em Ruby?",
		concepts:   "symbol, immutability, memory, identifiers",
	},
	{
		area:       TechAreaRuby,
		difficulty: "medium",
		en:         "Explain blocks, procs and lambdas in Ruby. How do they differ?",
		es:         "Explica los blocks, procs y lambdas en Ruby. ¿En qué se diferencian?",
		pt:         "Explique blocks, procs e lambdas em Ruby. Como eles diferem?",
		concepts:   "block, proc, lambda, return semantics, arity checking",
	},
	{
		area:       TechAreaGo,
		difficulty: "easy",
		en:         "What is the difference between a slice and an array in Go?",
		es:         "¿Cuál es la diferencia entre un slice y un array en Go?",
		pt:         "Qual é a diferença entre um slice e um array em Go?",
		concepts:   "slice header, backing array, length, capacity, value semantics",
	},
	{
		area:       TechAreaGo,
		difficulty: "medium",
		en:         "Explain how goroutines and channels work together in Go. Provide an example use case.",
		es:         "Explica cómo trabajan juntos los goroutines y los channels en Go. Da un ejemplo de uso.",
		pt:         "Explique como goroutines e channels trabalham juntos em Go. Dê um exemplo de uso.",
		concepts:   "goroutine, channel, concurrency, communication, select",
	},
	{
		area:       TechAreaDSA,
		difficulty: "easy",
		en:         "What is the time complexity of searching in a sorted array using binary search?",
		es:         "¿Cuál es la complejidad temporal de buscar en un array ordenado usando búsqueda binaria?",
		pt:         "Qual é a complexidade de tempo para buscar em um array ordenado usando busca binária?",
		concepts:   "binary search, O(log n), divide and conquer, sorted array",
	},
	{
		area:       TechAreaDSA,
		difficulty: "medium",
		en:         "Explain the difference between a stack and a queue. When would you use each?",
		es:         "Explica la diferencia entre una pila (stack) y una cola (queue). ¿Cuándo usarías cada una?",
		pt:         "Explique a diferença entre uma pilha (stack) e uma fila (queue). Quando você usaria cada uma?",
		concepts:   "LIFO, FIFO, stack operations, queue operations, use cases",
	},
}

// SeedQuestions loads the built-in question set. Questions whose English text
// is already present are skipped, so re-running the seed is harmless.
func (s *SQLiteStore) SeedQuestions() (int, error) {
	count := 0
	for _, sq := range seedQuestions {
		exists, err := s.QuestionExists(sq.en)
		if err != nil {
			return count, err
		}
		if exists {
			log.Printf("Seed question already present, skipping: %.60s...", sq.en)
			continue
		}

		es, pt, concepts := sq.es, sq.pt, sq.concepts
		q := Question{
			TechArea:         sq.area,
			Difficulty:       sq.difficulty,
			QuestionTextEN:   sq.en,
			QuestionTextES:   &es,
			QuestionTextPT:   &pt,
			ExpectedConcepts: &concepts,
		}
		if err := s.CreateQuestion(&q); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
