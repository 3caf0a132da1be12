// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package slice holds the generic slice transformations the standard [slices]
package stops short of.
*/
package slice

// Map applies transform to every element, producing a slice of the results.
// A nil input stays nil.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for index, element := range input {
		result[index] = transform(element)
	}
	return result
}

// Filter returns the elements for which keep is true, preserving order.
// A nil input stays nil; a fully-filtered input returns nil as well.
func Filter[T any](input []T, keep func(T) bool) []T {
	var result []T
	for _, element := range input {
		if keep(element) {
			result = append(result, element)
		}
	}
	return result
}
