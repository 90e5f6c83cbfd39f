package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations 引擎操作计数，按操作名与结果码分组
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "operations_total",
		Help:      "Escrow engine operations by name and result code.",
	}, []string{"operation", "result"})

	// PledgedWei 累计接受的认捐金额（wei）
	PledgedWei = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "pledged_wei_total",
		Help:      "Sum of accepted pledges in wei.",
	})

	// PaidOutWei 经转账方付出的金额（wei），按去向分组
	PaidOutWei = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "paid_out_wei_total",
		Help:      "Sum of funds moved out of escrow in wei.",
	}, []string{"kind"})

	// ProjectsClosed 已公告结束的项目数，按最终状态分组
	ProjectsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "escrow",
		Name:      "projects_closed_total",
		Help:      "Projects announced as closed, by terminal state.",
	}, []string{"state"})
)

// Observe 记录一次操作结果
func Observe(operation, result string) {
	Operations.WithLabelValues(operation, result).Inc()
}
