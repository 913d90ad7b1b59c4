package code

// mod2Rank computes the GF(2) rank of a constraint list by Gaussian
// elimination over packed 64-bit rows.
func mod2Rank(numVariables int, checks []Constraint) int {
	if numVariables == 0 || len(checks) == 0 {
		return 0
	}
	width := (numVariables + 63) / 64
	rows := make([][]uint64, len(checks))
	for i, c := range checks {
		row := make([]uint64, width)
		for _, v := range c.variables {
			row[v/64] ^= 1 << uint(v%64)
		}
		rows[i] = row
	}

	rank := 0
	col := 0
	for i := 0; i < len(rows); i++ {
		advanced := false
		for col < numVariables {
			bucket := col / 64
			offset := uint(col % 64)
			pivot := -1
			for j := i; j < len(rows); j++ {
				if (rows[j][bucket]>>offset)&1 == 1 {
					pivot = j
					break
				}
			}
			if pivot >= 0 {
				rows[i], rows[pivot] = rows[pivot], rows[i]
				for j := range rows {
					if j == i {
						continue
					}
					if (rows[j][bucket]>>offset)&1 == 1 {
						for k := 0; k < width; k++ {
							rows[j][k] ^= rows[i][k]
						}
					}
				}
				rank++
				col++
				advanced = true
				break
			}
			col++
		}
		if !advanced || col >= numVariables {
			break
		}
	}
	return rank
}
