// Package quiz builds multiple-choice movie trivia from content records and
// scores submitted answers.
//
// Build is deterministic for a given seed. Score is stateless: callers hand
// back the questions they were given together with the answers, keyed by
// question id. Answers may name the choice by index or by its text; text is
// compared case-insensitively with Unicode case folding.
package quiz
