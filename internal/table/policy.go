package table

import (
	"fmt"
	"strings"
)

// Policy decides the order in which a philosopher picks up its two forks.
type Policy string

const (
	// PolicyParity has even seats take left then right and odd seats take
	// right then left, so neighbours never chase each other around the ring.
	PolicyParity Policy = "parity"
	// PolicyOrdered always takes the lower-numbered fork first.
	PolicyOrdered Policy = "ordered"
	// PolicyNaive always takes left then right. It can deadlock and exists
	// only so the state-space checker can demonstrate that.
	PolicyNaive Policy = "naive"
)

// Policies lists every policy the checker understands.
var Policies = []Policy{PolicyParity, PolicyOrdered, PolicyNaive}

// ParsePolicy accepts a policy name, case-insensitively. Empty means parity.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyParity:
		return PolicyParity, nil
	case PolicyOrdered:
		return PolicyOrdered, nil
	case PolicyNaive:
		return PolicyNaive, nil
	}
	return "", fmt.Errorf("unknown policy %q (want parity or ordered)", s)
}

// Safe reports whether the policy is free of circular wait.
func (p Policy) Safe() bool {
	return p == PolicyParity || p == PolicyOrdered
}

// Forks returns the left and right fork of seat in a ring of n.
func Forks(seat, n int) (left, right int) {
	return seat, (seat + 1) % n
}

// Order returns the fork seat takes first and the one it takes second.
func (p Policy) Order(seat, n int) (first, second int) {
	left, right := Forks(seat, n)
	switch p {
	case PolicyParity:
		if seat%2 == 0 {
			return left, right
		}
		return right, left
	case PolicyOrdered:
		if left < right {
			return left, right
		}
		return right, left
	default:
		return left, right
	}
}
