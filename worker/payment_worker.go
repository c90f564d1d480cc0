package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/models"
	"vitrine-checkout-api/queue"
	"vitrine-checkout-api/services/email"
	"vitrine-checkout-api/services/payment"
)

const (
	delayedJobsInterval = 5 * time.Second
	expirySweepInterval = 10 * time.Minute
	pixExpiryAge        = time.Hour
)

// Worker processa em background os jobs que não podem segurar uma
// requisição HTTP: recibos, reconciliação com o gateway e expiração de
// cobranças pix abandonadas.
type Worker struct {
	queue     *queue.Queue
	db        *database.Connection
	gateway   payment.Gateway
	email     email.EmailSender
	shutdown  chan struct{}
	isRunning bool
}

func NewWorker(q *queue.Queue, db *database.Connection, gw payment.Gateway, es email.EmailSender) *Worker {
	return &Worker{
		queue:    q,
		db:       db,
		gateway:  gw,
		email:    es,
		shutdown: make(chan struct{}),
	}
}

// Start sobe o pool de goroutines e os tickers de manutenção
func (w *Worker) Start(concurrency int) {
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		go w.processJobs(i)
	}

	go w.pumpDelayedJobs()
	go w.scheduleExpirySweeps()

	log.Printf("Started %d worker goroutines", concurrency)
}

// Stop signals the worker to stop processing jobs
func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.isRunning = false
}

// processJobs continuously processes jobs from the queue
func (w *Worker) processJobs(workerID int) {
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			cancel()

			if err != nil {
				log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if job == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)

			jobErr := w.processJob(job)
			if jobErr != nil {
				log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				failErr := w.queue.FailJob(ctx, job, jobErr)
				cancel()

				if failErr != nil {
					log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, failErr)
				}

				time.Sleep(time.Second)
				continue
			}

			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			completeErr := w.queue.CompleteJob(ctx, job)
			cancel()

			if completeErr != nil {
				log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, completeErr)
			}
		}
	}
}

// pumpDelayedJobs move jobs agendados para a fila principal quando o
// horário deles chega
func (w *Worker) pumpDelayedJobs() {
	ticker := time.NewTicker(delayedJobsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

// scheduleExpirySweeps enfileira periodicamente a varredura de cobranças
// pix vencidas
func (w *Worker) scheduleExpirySweeps() {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.queue.Enqueue(ctx, queue.JobTypeExpirePixOrders, map[string]interface{}{}); err != nil {
				log.Printf("Error scheduling pix expiry sweep: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) processJob(job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeReceiptEmail:
		return w.processReceiptEmail(job)
	case queue.JobTypeReconcileOrder:
		return w.processReconcileOrder(job)
	case queue.JobTypeExpirePixOrders:
		return w.processExpirePixOrders(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processReceiptEmail(job *queue.Job) error {
	orderID, ok := job.Data["order_id"].(string)
	if !ok || orderID == "" {
		return fmt.Errorf("invalid order_id in job data")
	}

	order, err := w.db.GetOrder(orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %v", orderID, err)
	}

	if order.Status != models.OrderStatusApproved {
		// aprovação pode ter sido revertida entre o enqueue e agora
		log.Printf("Skipping receipt for order %s with status %s", orderID, order.Status)
		return nil
	}

	if order.CustomerEmail == "" {
		log.Printf("Order %s has no customer email, skipping receipt", orderID)
		return nil
	}

	providerName := w.lookupProviderName(order)

	receipt := fmt.Sprintf(email.ReceiptEmailTemplate,
		order.ItemTitle,
		providerName,
		order.ID,
		order.Amount,
		"Qualquer dúvida, responda este e-mail que a gente ajuda.")

	if err := w.email.SendReceiptEmail(order.CustomerEmail, order.CustomerName, receipt); err != nil {
		return fmt.Errorf("failed to send receipt email: %v", err)
	}

	log.Printf("Sent receipt for order %s to %s", orderID, order.CustomerEmail)
	return nil
}

func (w *Worker) lookupProviderName(order *models.Order) string {
	var (
		item *models.PurchasableItem
		err  error
	)

	switch order.ItemKind {
	case models.ItemKindService:
		item, err = w.db.GetServiceItem(order.ItemID)
	case models.ItemKindCourse:
		item, err = w.db.GetCourseItem(order.ItemID)
	default:
		return ""
	}

	if err != nil {
		log.Printf("Warning: failed to load item for order %s: %v", order.ID, err)
		return ""
	}
	return item.ProviderName
}

// processReconcileOrder reconsulta o gateway para um pedido que ficou sem
// resposta terminal. Se o pagamento acabou aprovado, o recibo segue.
func (w *Worker) processReconcileOrder(job *queue.Job) error {
	orderID, ok := job.Data["order_id"].(string)
	if !ok || orderID == "" {
		return fmt.Errorf("invalid order_id in job data")
	}

	order, err := w.db.GetOrder(orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %v", orderID, err)
	}

	if order.Status.IsTerminal() {
		log.Printf("Order %s already terminal (%s), nothing to reconcile", orderID, order.Status)
		return nil
	}

	if order.GatewayPaymentID == "" {
		return fmt.Errorf("order %s has no gateway payment id", orderID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	status, err := w.gateway.GetPaymentStatus(ctx, order.GatewayPaymentID)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to get gateway status for order %s: %v", orderID, err)
	}

	if status == order.Status {
		log.Printf("Order %s unchanged at gateway (%s)", orderID, status)
		return nil
	}

	if err := w.db.UpdateOrderStatus(orderID, status, "reconciled"); err != nil {
		return fmt.Errorf("failed to update order %s: %v", orderID, err)
	}

	log.Printf("Reconciled order %s: %s -> %s", orderID, order.Status, status)

	if status == models.OrderStatusApproved {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.queue.Enqueue(ctx, queue.JobTypeReceiptEmail, map[string]interface{}{
			"order_id": orderID,
		})
	}

	return nil
}

// processExpirePixOrders cancela cobranças pix que ficaram pendentes por
// mais tempo que a validade do QR. Antes de cancelar, reconsulta o
// gateway: o pagamento pode ter caído depois do polling.
func (w *Worker) processExpirePixOrders(job *queue.Job) error {
	orders, err := w.db.ListStalePixOrders(pixExpiryAge)
	if err != nil {
		return fmt.Errorf("failed to list stale pix orders: %v", err)
	}

	for _, order := range orders {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		status, err := w.gateway.GetPaymentStatus(ctx, order.GatewayPaymentID)
		cancel()

		if err != nil {
			log.Printf("Warning: failed to check gateway for pix order %s: %v", order.ID, err)
			continue
		}

		if status == models.OrderStatusApproved {
			if err := w.db.UpdateOrderStatus(order.ID, status, "reconciled"); err != nil {
				log.Printf("Warning: failed to update order %s: %v", order.ID, err)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.queue.Enqueue(ctx, queue.JobTypeReceiptEmail, map[string]interface{}{
				"order_id": order.ID,
			}); err != nil {
				log.Printf("Warning: failed to enqueue receipt for order %s: %v", order.ID, err)
			}
			cancel()
			continue
		}

		if status.IsTerminal() {
			if err := w.db.UpdateOrderStatus(order.ID, status, "reconciled"); err != nil {
				log.Printf("Warning: failed to update order %s: %v", order.ID, err)
			}
			continue
		}

		if err := w.db.UpdateOrderStatus(order.ID, models.OrderStatusCancelled, "pix_expired"); err != nil {
			log.Printf("Warning: failed to expire order %s: %v", order.ID, err)
			continue
		}

		log.Printf("Expired pix order %s", order.ID)

		if order.CustomerEmail != "" {
			fullOrder, err := w.db.GetOrder(order.ID)
			title := ""
			if err == nil {
				title = fullOrder.ItemTitle
			}
			if err := w.email.SendPixExpiredEmail(order.CustomerEmail, order.CustomerName, title); err != nil {
				log.Printf("Warning: failed to send pix expiry email for order %s: %v", order.ID, err)
			}
		}
	}

	return nil
}
