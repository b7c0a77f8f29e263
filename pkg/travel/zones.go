package travel

// defaultZoneTable 奥卢市各服务区间的车程分钟表
// 对称矩阵，同区为 0
func defaultZoneTable() map[string]map[string]int {
	return map[string]map[string]int{
		"Keskusta (City Center)": {
			"Keskusta (City Center)": 0, "Raksila": 15, "Tuira": 20, "Meri-Oulu": 25,
			"Pateniemi": 30, "Pohjois-Oulu": 25, "Kontinkangas": 20, "Kaakkuri": 15, "Myllyoja": 10,
		},
		"Raksila": {
			"Keskusta (City Center)": 15, "Raksila": 0, "Tuira": 10, "Meri-Oulu": 20,
			"Pateniemi": 25, "Pohjois-Oulu": 20, "Kontinkangas": 15, "Kaakkuri": 20, "Myllyoja": 10,
		},
		"Tuira": {
			"Keskusta (City Center)": 20, "Raksila": 10, "Tuira": 0, "Meri-Oulu": 15,
			"Pateniemi": 20, "Pohjois-Oulu": 15, "Kontinkangas": 20, "Kaakkuri": 25, "Myllyoja": 20,
		},
		"Meri-Oulu": {
			"Keskusta (City Center)": 25, "Raksila": 20, "Tuira": 15, "Meri-Oulu": 0,
			"Pateniemi": 10, "Pohjois-Oulu": 20, "Kontinkangas": 30, "Kaakkuri": 35, "Myllyoja": 30,
		},
		"Pateniemi": {
			"Keskusta (City Center)": 30, "Raksila": 25, "Tuira": 20, "Meri-Oulu": 10,
			"Pateniemi": 0, "Pohjois-Oulu": 25, "Kontinkangas": 35, "Kaakkuri": 40, "Myllyoja": 35,
		},
		"Pohjois-Oulu": {
			"Keskusta (City Center)": 25, "Raksila": 20, "Tuira": 15, "Meri-Oulu": 20,
			"Pateniemi": 25, "Pohjois-Oulu": 0, "Kontinkangas": 15, "Kaakkuri": 20, "Myllyoja": 20,
		},
		"Kontinkangas": {
			"Keskusta (City Center)": 20, "Raksila": 15, "Tuira": 20, "Meri-Oulu": 30,
			"Pateniemi": 35, "Pohjois-Oulu": 15, "Kontinkangas": 0, "Kaakkuri": 10, "Myllyoja": 15,
		},
		"Kaakkuri": {
			"Keskusta (City Center)": 15, "Raksila": 20, "Tuira": 25, "Meri-Oulu": 35,
			"Pateniemi": 40, "Pohjois-Oulu": 20, "Kontinkangas": 10, "Kaakkuri": 0, "Myllyoja": 20,
		},
		"Myllyoja": {
			"Keskusta (City Center)": 10, "Raksila": 10, "Tuira": 20, "Meri-Oulu": 30,
			"Pateniemi": 35, "Pohjois-Oulu": 20, "Kontinkangas": 15, "Kaakkuri": 20, "Myllyoja": 0,
		},
	}
}

// DefaultStartZone 当日首个访视的路程计算起点（市中心）
const DefaultStartZone = "Keskusta (City Center)"
