// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

// Cluster groups located projects so that every member of a group is within
// distance meters of at least one other member. Projects without coordinates
// are left out. Groups keep list order.
func Cluster(projects []*Project, distance float64) [][]*Project {
	located := make([]*Project, 0, len(projects))

	for _, p := range projects {
		if _, ok := p.Point(); ok {
			located = append(located, p)
		}
	}

	clusters := make([][]*Project, 0, len(located))
	visited := make([]bool, len(located))

	for i, p := range located {
		if visited[i] {
			continue
		}

		cluster := []*Project{p}
		visited[i] = true

		// grows while scanning: members appended here are compared too
		for k := 0; k < len(cluster); k++ {
			center, _ := cluster[k].Point()

			for j, q := range located {
				if visited[j] {
					continue
				}

				pt, _ := q.Point()
				if center.HaversineDistance(&pt) <= distance {
					cluster = append(cluster, q)
					visited[j] = true
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
