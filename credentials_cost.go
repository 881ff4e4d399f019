//go:build !race

package auth

func secretHashCost() int {
	return 14
}
